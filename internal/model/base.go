package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 金額はJSON上で数値として扱う
	decimal.MarshalJSONWithoutQuotes = true
}

// Base は全エンティティ共通のカラム
type Base struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) GetID() uint {
	return b.ID
}
