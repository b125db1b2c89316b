package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderInput は注文ヘッダの入力
type OrderInput struct {
	CustomerID    uint                 `json:"customerId" validate:"required"`
	Status        *model.OrderStatus   `json:"status" validate:"omitempty,oneof=pending paid shipped delivered cancelled"`
	TotalAmount   decimal.Decimal      `json:"totalAmount" validate:"gte=0,money"`
	Discount      decimal.Decimal      `json:"discount" validate:"gte=0,money"`
	ShippingCost  decimal.Decimal      `json:"shippingCost" validate:"gte=0,money"`
	PaymentMethod *model.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=credit_card debit_card pix boleto bank_transfer cash"`
	Notes         *string              `json:"notes" validate:"omitempty,max=5000"`
	OrderedAt     *time.Time           `json:"orderedAt"`
}

// OrderLineInput は注文作成時の明細行
type OrderLineInput struct {
	ProductID uint            `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	Price     decimal.Decimal `json:"price" validate:"gt=0,money"`
}

// CreateOrderInput は {order, items} 形式の注文作成リクエスト
type CreateOrderInput struct {
	Order OrderInput       `json:"order"`
	Items []OrderLineInput `json:"items" validate:"required,min=1,dive"`
}

// OrderPatch updates header fields only; items have their own endpoints.
type OrderPatch struct {
	CustomerID    *uint                `json:"customerId" validate:"omitempty,gt=0"`
	Status        *model.OrderStatus   `json:"status" validate:"omitempty,oneof=pending paid shipped delivered cancelled"`
	TotalAmount   *decimal.Decimal     `json:"totalAmount" validate:"omitempty,gte=0,money"`
	Discount      *decimal.Decimal     `json:"discount" validate:"omitempty,gte=0,money"`
	ShippingCost  *decimal.Decimal     `json:"shippingCost" validate:"omitempty,gte=0,money"`
	PaymentMethod *model.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=credit_card debit_card pix boleto bank_transfer cash"`
	Notes         *string              `json:"notes" validate:"omitempty,max=5000"`
	OrderedAt     *time.Time           `json:"orderedAt"`
}

type OrderService interface {
	CRUDService[model.Order, CreateOrderInput, OrderPatch]
}

// 注文番号の衝突時の再試行回数
const orderNumberAttempts = 5

type orderServiceImpl struct {
	baseService[model.Order]
	now       func() time.Time
	newNumber func(time.Time) string
}

// NewOrderService は注文サービスを作成
func NewOrderService(db *gorm.DB) OrderService {
	return &orderServiceImpl{
		baseService: newBaseService[model.Order](db, repository.Options{
			Resource:      "Order",
			SearchColumns: []string{"order_number", "notes"},
			DefaultOrder:  repository.OrderByNewest,
			Preloads:      []string{"Customer", "Items", "Items.Product", "Payments", "Shipments"},
			ListPreloads:  []string{"Customer"},
			UniqueFields:  []repository.UniqueField{{Column: "order_number", Field: "orderNumber"}},
		}),
		now:       time.Now,
		newNumber: GenerateOrderNumber,
	}
}

// GenerateOrderNumber は ORD-YYYYMMDD-XXXXXX 形式の注文番号を生成
func GenerateOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", t.UTC().Format("20060102"), suffix)
}

// Create inserts the header and every line in one transaction; any failure leaves nothing behind.
func (s *orderServiceImpl) Create(ctx context.Context, input *CreateOrderInput) (*model.Order, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := checkReference[model.Customer](ctx, s.db, "order.customerId", input.Order.CustomerID); err != nil {
		return nil, err
	}
	if err := s.checkProducts(ctx, input.Items); err != nil {
		return nil, err
	}

	header := input.Order
	now := s.now().UTC()
	order := &model.Order{
		CustomerID:    header.CustomerID,
		Status:        model.OrderPending,
		TotalAmount:   header.TotalAmount,
		Discount:      header.Discount,
		ShippingCost:  header.ShippingCost,
		PaymentMethod: header.PaymentMethod,
		Notes:         trimPtr(header.Notes),
		OrderedAt:     now,
	}
	if header.Status != nil {
		order.Status = *header.Status
	}
	if header.OrderedAt != nil {
		order.OrderedAt = header.OrderedAt.UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		number, err := s.allocateNumber(ctx, orders, now)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			items = append(items, model.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
				Total:     model.LineTotal(line.Quantity, line.Price),
			})
		}
		if err := tx.WithContext(ctx).Omit(clause.Associations).Create(&items).Error; err != nil {
			return apperror.Internal("failed to create order items", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, order.ID)
}

// allocateNumber は未使用の注文番号を確保する
func (s *orderServiceImpl) allocateNumber(ctx context.Context, orders *repository.Repository[model.Order], now time.Time) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		number := s.newNumber(now)
		exists, err := orders.Exists(ctx, "order_number", number, 0)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", apperror.Internal("failed to allocate a unique order number", nil)
}

// checkProducts は全明細の商品が存在することを確認
func (s *orderServiceImpl) checkProducts(ctx context.Context, items []OrderLineInput) error {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var existing []uint
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Where("id IN ?", uniqueIDs(ids)).Pluck("id", &existing).Error; err != nil {
		return apperror.Internal("failed to check products", err)
	}
	found := make(map[uint]bool, len(existing))
	for _, id := range existing {
		found[id] = true
	}
	for i, item := range items {
		if !found[item.ProductID] {
			return apperror.FieldInvalid(fmt.Sprintf("items[%d].productId", i), "does not exist")
		}
	}
	return nil
}

// Update は注文ヘッダのみを更新
func (s *orderServiceImpl) Update(ctx context.Context, id uint, input *OrderPatch) (*model.Order, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := patch{}
	if input.CustomerID != nil && *input.CustomerID != current.CustomerID {
		if err := checkReference[model.Customer](ctx, s.db, "customerId", *input.CustomerID); err != nil {
			return nil, err
		}
		changes["customer_id"] = *input.CustomerID
	}
	if input.Status != nil {
		changes["status"] = *input.Status
	}
	if input.TotalAmount != nil {
		changes["total_amount"] = *input.TotalAmount
	}
	if input.Discount != nil {
		changes["discount"] = *input.Discount
	}
	if input.ShippingCost != nil {
		changes["shipping_cost"] = *input.ShippingCost
	}
	if input.PaymentMethod != nil {
		changes["payment_method"] = *input.PaymentMethod
	}
	changes.str("notes", input.Notes)
	if input.OrderedAt != nil {
		changes["ordered_at"] = input.OrderedAt.UTC()
	}

	header := &model.Order{Base: model.Base{ID: current.ID}}
	if err := s.repo.Updates(ctx, header, changes); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes the items and the header together; payments and shipments stay.
func (s *orderServiceImpl) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return apperror.Internal("failed to delete order items", err)
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}
