package service

import (
	"context"

	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItemInput は明細追加リクエスト
type OrderItemInput struct {
	OrderID   uint            `json:"orderId" validate:"required"`
	ProductID uint            `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	Price     decimal.Decimal `json:"price" validate:"gt=0,money"`
}

type OrderItemPatch struct {
	ProductID *uint            `json:"productId" validate:"omitempty,gt=0"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gte=1"`
	Price     *decimal.Decimal `json:"price" validate:"omitempty,gt=0,money"`
}

// OrderItemService manages lines individually. The parent order's totalAmount is not recomputed.
type OrderItemService interface {
	CRUDService[model.OrderItem, OrderItemInput, OrderItemPatch]
}

type orderItemServiceImpl struct {
	baseService[model.OrderItem]
}

// NewOrderItemService は明細サービスを作成
func NewOrderItemService(db *gorm.DB) OrderItemService {
	return &orderItemServiceImpl{
		baseService: newBaseService[model.OrderItem](db, repository.Options{
			Resource:     "OrderItem",
			DefaultOrder: repository.OrderByNewest,
			Preloads:     []string{"Product"},
			ListPreloads: []string{"Product"},
		}),
	}
}

func (s *orderItemServiceImpl) Create(ctx context.Context, input *OrderItemInput) (*model.OrderItem, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := checkReference[model.Order](ctx, s.db, "orderId", input.OrderID); err != nil {
		return nil, err
	}
	if err := checkReference[model.Product](ctx, s.db, "productId", input.ProductID); err != nil {
		return nil, err
	}

	item := &model.OrderItem{
		OrderID:   input.OrderID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Price:     input.Price,
		Total:     model.LineTotal(input.Quantity, input.Price),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, item.ID)
}

// Update は明細を更新し、明細自身の合計を再計算する
func (s *orderItemServiceImpl) Update(ctx context.Context, id uint, input *OrderItemPatch) (*model.OrderItem, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	changes := patch{}
	if input.ProductID != nil && *input.ProductID != current.ProductID {
		if err := checkReference[model.Product](ctx, s.db, "productId", *input.ProductID); err != nil {
			return nil, err
		}
		changes["product_id"] = *input.ProductID
	}

	quantity, price := current.Quantity, current.Price
	if input.Quantity != nil {
		quantity = *input.Quantity
		changes["quantity"] = quantity
	}
	if input.Price != nil {
		price = *input.Price
		changes["price"] = price
	}
	if input.Quantity != nil || input.Price != nil {
		changes["total"] = model.LineTotal(quantity, price)
	}

	current.Product = nil
	if err := s.repo.Updates(ctx, current, changes); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
