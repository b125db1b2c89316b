package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment は注文に対する入金記録
type Payment struct {
	Base
	OrderID         uint            `json:"orderId" gorm:"not null;index"`
	PaymentDate     time.Time       `json:"paymentDate" gorm:"not null"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(30);not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	TransactionCode *string         `json:"transactionCode" gorm:"type:varchar(100)"`
}

// ShippingStatus は配送ステータス
type ShippingStatus string

const (
	ShippingPending    ShippingStatus = "pending"
	ShippingProcessing ShippingStatus = "processing"
	ShippingShipped    ShippingStatus = "shipped"
	ShippingDelivered  ShippingStatus = "delivered"
	ShippingReturned   ShippingStatus = "returned"
)

// Shipping は注文の配送記録
type Shipping struct {
	Base
	OrderID        uint           `json:"orderId" gorm:"not null;index"`
	Carrier        *string        `json:"carrier" gorm:"type:varchar(100)"`
	TrackingCode   *string        `json:"trackingCode" gorm:"type:varchar(100)"`
	ShippedAt      *time.Time     `json:"shippedAt"`
	DeliveredAt    *time.Time     `json:"deliveredAt"`
	ShippingStatus ShippingStatus `json:"shippingStatus" gorm:"type:varchar(20);not null"`
}

func (Shipping) TableName() string {
	return "shipping"
}
