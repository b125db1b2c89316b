package service

import (
	"context"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"gorm.io/gorm"
)

// NamedInput はブランド・カテゴリ共通の作成リクエスト
type NamedInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type NamedPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type BrandService interface {
	CRUDService[model.Brand, NamedInput, NamedPatch]
}

type CategoryService interface {
	CRUDService[model.Category, NamedInput, NamedPatch]
}

// namedServiceImpl serves the small master-data tables keyed by a unique name.
type namedServiceImpl[T any] struct {
	baseService[T]
	build func(name string, description *string) *T
	name  func(*T) string

	// productColumn is the products column that references this table.
	productColumn string
}

func newNamedService[T any](db *gorm.DB, resource, productColumn string, build func(string, *string) *T, name func(*T) string) *namedServiceImpl[T] {
	return &namedServiceImpl[T]{
		baseService: newBaseService[T](db, repository.Options{
			Resource:      resource,
			SearchColumns: []string{"name", "description"},
			DefaultOrder:  repository.OrderByName,
			UniqueFields:  []repository.UniqueField{{Column: "name", Field: "name"}},
		}),
		build:         build,
		name:          name,
		productColumn: productColumn,
	}
}

// NewBrandService はブランドサービスを作成
func NewBrandService(db *gorm.DB) BrandService {
	return newNamedService(db, "Brand", "brand_id",
		func(name string, description *string) *model.Brand {
			return &model.Brand{Name: name, Description: description}
		},
		func(b *model.Brand) string { return b.Name },
	)
}

// NewCategoryService はカテゴリサービスを作成
func NewCategoryService(db *gorm.DB) CategoryService {
	return newNamedService(db, "Category", "category_id",
		func(name string, description *string) *model.Category {
			return &model.Category{Name: name, Description: description}
		},
		func(c *model.Category) string { return c.Name },
	)
}

func (s *namedServiceImpl[T]) Create(ctx context.Context, input *NamedInput) (*T, error) {
	input.Name = trim(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := s.repo.CheckUnique(ctx, s.repo.UniqueField("name"), input.Name, 0); err != nil {
		return nil, err
	}

	entity := s.build(input.Name, trimPtr(input.Description))
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, idOf(entity))
}

func (s *namedServiceImpl[T]) Update(ctx context.Context, id uint, input *NamedPatch) (*T, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.Name = trimPtr(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	changes := patch{}
	if input.Name != nil && *input.Name != s.name(current) {
		if err := s.repo.CheckUnique(ctx, s.repo.UniqueField("name"), *input.Name, id); err != nil {
			return nil, err
		}
		changes["name"] = *input.Name
	}
	changes.str("description", input.Description)

	if err := s.repo.Updates(ctx, current, changes); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete は参照している商品の分類を外してから削除する
func (s *namedServiceImpl[T]) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).
			Where(s.productColumn+" = ?", id).
			Update(s.productColumn, nil).Error; err != nil {
			return apperror.Internal("failed to detach products", err)
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}
