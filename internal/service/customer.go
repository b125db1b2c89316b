package service

import (
	"context"

	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"gorm.io/gorm"
)

// CustomerInput は顧客作成リクエスト
type CustomerInput struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=191"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Document *string `json:"document" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	State    *string `json:"state" validate:"omitempty,max=100"`
	ZipCode  *string `json:"zipCode" validate:"omitempty,max=20"`
}

// CustomerPatch は顧客更新リクエスト。nilのフィールドは変更しない
type CustomerPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=191"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Document *string `json:"document" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	State    *string `json:"state" validate:"omitempty,max=100"`
	ZipCode  *string `json:"zipCode" validate:"omitempty,max=20"`
}

type CustomerService interface {
	CRUDService[model.Customer, CustomerInput, CustomerPatch]
}

type customerServiceImpl struct {
	baseService[model.Customer]
}

// NewCustomerService は新しい顧客サービスを作成
func NewCustomerService(db *gorm.DB) CustomerService {
	return &customerServiceImpl{
		baseService: newBaseService[model.Customer](db, repository.Options{
			Resource:      "Customer",
			SearchColumns: []string{"name", "email", "phone", "document", "city", "state"},
			DefaultOrder:  repository.OrderByName,
			UniqueFields:  []repository.UniqueField{{Column: "email", Field: "email"}},
		}),
	}
}

func (s *customerServiceImpl) Create(ctx context.Context, input *CustomerInput) (*model.Customer, error) {
	input.Name = trim(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := s.repo.CheckUnique(ctx, s.repo.UniqueField("email"), input.Email, 0); err != nil {
		return nil, err
	}

	customer := &model.Customer{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    trimPtr(input.Phone),
		Document: trimPtr(input.Document),
		Address:  trimPtr(input.Address),
		City:     trimPtr(input.City),
		State:    trimPtr(input.State),
		ZipCode:  trimPtr(input.ZipCode),
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, customer.ID)
}

func (s *customerServiceImpl) Update(ctx context.Context, id uint, input *CustomerPatch) (*model.Customer, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.Name = trimPtr(input.Name)
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		input.Email = &email
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	changes := patch{}
	changes.str("name", input.Name)
	if input.Email != nil && *input.Email != current.Email {
		if err := s.repo.CheckUnique(ctx, s.repo.UniqueField("email"), *input.Email, id); err != nil {
			return nil, err
		}
		changes["email"] = *input.Email
	}
	changes.str("phone", input.Phone)
	changes.str("document", input.Document)
	changes.str("address", input.Address)
	changes.str("city", input.City)
	changes.str("state", input.State)
	changes.str("zip_code", input.ZipCode)

	if err := s.repo.Updates(ctx, current, changes); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
