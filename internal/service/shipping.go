package service

import (
	"context"
	"time"

	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"gorm.io/gorm"
)

// ShippingInput は配送登録リクエスト
type ShippingInput struct {
	OrderID        uint                  `json:"orderId" validate:"required"`
	Carrier        *string               `json:"carrier" validate:"omitempty,max=100"`
	TrackingCode   *string               `json:"trackingCode" validate:"omitempty,max=100"`
	ShippedAt      *time.Time            `json:"shippedAt"`
	DeliveredAt    *time.Time            `json:"deliveredAt"`
	ShippingStatus *model.ShippingStatus `json:"shippingStatus" validate:"omitempty,oneof=pending processing shipped delivered returned"`
}

type ShippingPatch struct {
	OrderID        *uint                 `json:"orderId" validate:"omitempty,gt=0"`
	Carrier        *string               `json:"carrier" validate:"omitempty,max=100"`
	TrackingCode   *string               `json:"trackingCode" validate:"omitempty,max=100"`
	ShippedAt      *time.Time            `json:"shippedAt"`
	DeliveredAt    *time.Time            `json:"deliveredAt"`
	ShippingStatus *model.ShippingStatus `json:"shippingStatus" validate:"omitempty,oneof=pending processing shipped delivered returned"`
}

type ShippingService interface {
	CRUDService[model.Shipping, ShippingInput, ShippingPatch]
}

type shippingServiceImpl struct {
	baseService[model.Shipping]
}

// NewShippingService は配送サービスを作成
func NewShippingService(db *gorm.DB) ShippingService {
	return &shippingServiceImpl{
		baseService: newBaseService[model.Shipping](db, repository.Options{
			Resource:      "Shipping",
			SearchColumns: []string{"carrier", "tracking_code", "shipping_status"},
			DefaultOrder:  repository.OrderByNewest,
		}),
	}
}

func (s *shippingServiceImpl) Create(ctx context.Context, input *ShippingInput) (*model.Shipping, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := checkReference[model.Order](ctx, s.db, "orderId", input.OrderID); err != nil {
		return nil, err
	}

	status := model.ShippingPending
	if input.ShippingStatus != nil {
		status = *input.ShippingStatus
	}
	shipping := &model.Shipping{
		OrderID:        input.OrderID,
		Carrier:        trimPtr(input.Carrier),
		TrackingCode:   trimPtr(input.TrackingCode),
		ShippedAt:      utcPtr(input.ShippedAt),
		DeliveredAt:    utcPtr(input.DeliveredAt),
		ShippingStatus: status,
	}
	if err := s.repo.Create(ctx, shipping); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, shipping.ID)
}

func (s *shippingServiceImpl) Update(ctx context.Context, id uint, input *ShippingPatch) (*model.Shipping, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	changes := patch{}
	if input.OrderID != nil && *input.OrderID != current.OrderID {
		if err := checkReference[model.Order](ctx, s.db, "orderId", *input.OrderID); err != nil {
			return nil, err
		}
		changes["order_id"] = *input.OrderID
	}
	changes.str("carrier", input.Carrier)
	changes.str("tracking_code", input.TrackingCode)
	if input.ShippedAt != nil {
		changes["shipped_at"] = input.ShippedAt.UTC()
	}
	if input.DeliveredAt != nil {
		changes["delivered_at"] = input.DeliveredAt.UTC()
	}
	if input.ShippingStatus != nil {
		changes["shipping_status"] = *input.ShippingStatus
	}

	if err := s.repo.Updates(ctx, current, changes); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
