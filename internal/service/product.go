package service

import (
	"context"

	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductInput は商品作成リクエスト
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	SKU         string          `json:"sku" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"gt=0,money"`
	Stock       int             `json:"stock" validate:"gte=0"`
	BrandID     *uint           `json:"brandId"`
	CategoryID  *uint           `json:"categoryId"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
}

// ProductPatch は商品更新リクエスト
type ProductPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gt=0,money"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	BrandID     *uint            `json:"brandId"`
	CategoryID  *uint            `json:"categoryId"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
}

// ProductService は商品サービスのインターフェース
type ProductService interface {
	CRUDService[model.Product, ProductInput, ProductPatch]
}

// productServiceImpl は商品サービスの実装
type productServiceImpl struct {
	baseService[model.Product]
}

// NewProductService は新しい商品サービスを作成
func NewProductService(db *gorm.DB) ProductService {
	return &productServiceImpl{
		baseService: newBaseService[model.Product](db, repository.Options{
			Resource:      "Product",
			SearchColumns: []string{"name", "sku", "description"},
			DefaultOrder:  repository.OrderByName,
			Preloads:      []string{"Brand", "Category"},
			ListPreloads:  []string{"Brand", "Category"},
			UniqueFields:  []repository.UniqueField{{Column: "sku", Field: "sku"}},
		}),
	}
}

// Create は新しい商品を作成
func (s *productServiceImpl) Create(ctx context.Context, input *ProductInput) (*model.Product, error) {
	input.Name = trim(input.Name)
	input.SKU = trim(input.SKU)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	input.BrandID = unsetZero(input.BrandID)
	input.CategoryID = unsetZero(input.CategoryID)
	if err := s.checkClassification(ctx, input.BrandID, input.CategoryID); err != nil {
		return nil, err
	}
	if err := s.repo.CheckUnique(ctx, s.repo.UniqueField("sku"), input.SKU, 0); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        input.Name,
		SKU:         input.SKU,
		Price:       input.Price,
		Stock:       input.Stock,
		BrandID:     input.BrandID,
		CategoryID:  input.CategoryID,
		Description: trimPtr(input.Description),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, product.ID)
}

// Update は商品を更新
func (s *productServiceImpl) Update(ctx context.Context, id uint, input *ProductPatch) (*model.Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.Name = trimPtr(input.Name)
	input.SKU = trimPtr(input.SKU)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := s.checkClassification(ctx, unsetZero(input.BrandID), unsetZero(input.CategoryID)); err != nil {
		return nil, err
	}

	changes := patch{}
	changes.str("name", input.Name)
	if input.SKU != nil && *input.SKU != current.SKU {
		if err := s.repo.CheckUnique(ctx, s.repo.UniqueField("sku"), *input.SKU, id); err != nil {
			return nil, err
		}
		changes["sku"] = *input.SKU
	}
	if input.Price != nil {
		changes["price"] = *input.Price
	}
	if input.Stock != nil {
		changes["stock"] = *input.Stock
	}
	// 0 はブランド・カテゴリの解除
	if input.BrandID != nil {
		changes["brand_id"] = reference(*input.BrandID)
	}
	if input.CategoryID != nil {
		changes["category_id"] = reference(*input.CategoryID)
	}
	changes.str("description", input.Description)

	// 関連はプリロード済みなので更新前に外す
	current.Brand, current.Category = nil, nil
	if err := s.repo.Updates(ctx, current, changes); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func unsetZero(id *uint) *uint {
	if id != nil && *id == 0 {
		return nil
	}
	return id
}

func reference(id uint) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// checkClassification はブランド・カテゴリの参照を確認
func (s *productServiceImpl) checkClassification(ctx context.Context, brandID, categoryID *uint) error {
	if brandID != nil {
		if err := checkReference[model.Brand](ctx, s.db, "brandId", *brandID); err != nil {
			return err
		}
	}
	if categoryID != nil {
		if err := checkReference[model.Category](ctx, s.db, "categoryId", *categoryID); err != nil {
			return err
		}
	}
	return nil
}
