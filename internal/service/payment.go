package service

import (
	"context"
	"time"

	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentInput は入金登録リクエスト
type PaymentInput struct {
	OrderID         uint                `json:"orderId" validate:"required"`
	PaymentDate     *time.Time          `json:"paymentDate"`
	PaymentMethod   model.PaymentMethod `json:"paymentMethod" validate:"required,oneof=credit_card debit_card pix boleto bank_transfer cash"`
	Amount          decimal.Decimal     `json:"amount" validate:"gt=0,money"`
	TransactionCode *string             `json:"transactionCode" validate:"omitempty,max=100"`
}

type PaymentPatch struct {
	OrderID         *uint                `json:"orderId" validate:"omitempty,gt=0"`
	PaymentDate     *time.Time           `json:"paymentDate"`
	PaymentMethod   *model.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=credit_card debit_card pix boleto bank_transfer cash"`
	Amount          *decimal.Decimal     `json:"amount" validate:"omitempty,gt=0,money"`
	TransactionCode *string              `json:"transactionCode" validate:"omitempty,max=100"`
}

type PaymentService interface {
	CRUDService[model.Payment, PaymentInput, PaymentPatch]
}

type paymentServiceImpl struct {
	baseService[model.Payment]
	now func() time.Time
}

// NewPaymentService は入金サービスを作成
func NewPaymentService(db *gorm.DB) PaymentService {
	return &paymentServiceImpl{
		baseService: newBaseService[model.Payment](db, repository.Options{
			Resource:      "Payment",
			SearchColumns: []string{"transaction_code", "payment_method"},
			DefaultOrder:  repository.OrderByNewest,
		}),
		now: time.Now,
	}
}

func (s *paymentServiceImpl) Create(ctx context.Context, input *PaymentInput) (*model.Payment, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := checkReference[model.Order](ctx, s.db, "orderId", input.OrderID); err != nil {
		return nil, err
	}

	paidAt := s.now()
	if input.PaymentDate != nil {
		paidAt = *input.PaymentDate
	}
	payment := &model.Payment{
		OrderID:         input.OrderID,
		PaymentDate:     paidAt.UTC(),
		PaymentMethod:   input.PaymentMethod,
		Amount:          input.Amount,
		TransactionCode: trimPtr(input.TransactionCode),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, payment.ID)
}

func (s *paymentServiceImpl) Update(ctx context.Context, id uint, input *PaymentPatch) (*model.Payment, error) {
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
	if input.PaymentDate != nil {
		changes["payment_date"] = input.PaymentDate.UTC()
	}
	if input.PaymentMethod != nil {
		changes["payment_method"] = *input.PaymentMethod
	}
	if input.Amount != nil {
		changes["amount"] = *input.Amount
	}
	changes.str("transaction_code", input.TransactionCode)

	if err := s.repo.Updates(ctx, current, changes); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
