package model

import "github.com/shopspring/decimal"

// Brand は商品ブランド
type Brand struct {
	Base
	Name        string  `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description *string `json:"description" gorm:"type:text"`
}

// Category は商品カテゴリ
type Category struct {
	Base
	Name        string  `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description *string `json:"description" gorm:"type:text"`
}

// Product は商品情報を表すモデル
type Product struct {
	Base
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	SKU         string          `json:"sku" gorm:"column:sku;type:varchar(100);uniqueIndex;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null"`
	BrandID     *uint           `json:"brandId" gorm:"index"`
	CategoryID  *uint           `json:"categoryId" gorm:"index"`
	Description *string         `json:"description" gorm:"type:text"`
	Brand       *Brand          `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}
