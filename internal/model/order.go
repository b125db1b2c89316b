package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus は注文ステータス
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// PaymentMethod は支払方法
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentPix          PaymentMethod = "pix"
	PaymentBoleto       PaymentMethod = "boleto"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCash         PaymentMethod = "cash"
)

// Order は注文ヘッダ
type Order struct {
	Base
	CustomerID    uint            `json:"customerId" gorm:"not null;index"`
	OrderNumber   string          `json:"orderNumber" gorm:"type:varchar(50);uniqueIndex;not null"`
	Status        OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalAmount   decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	Discount      decimal.Decimal `json:"discount" gorm:"type:decimal(12,2);not null"`
	ShippingCost  decimal.Decimal `json:"shippingCost" gorm:"type:decimal(12,2);not null"`
	PaymentMethod *PaymentMethod  `json:"paymentMethod" gorm:"type:varchar(30)"`
	Notes         *string         `json:"notes" gorm:"type:text"`
	OrderedAt     time.Time       `json:"orderedAt" gorm:"not null"`
	Customer      *Customer       `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items         []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Payments      []Payment       `json:"payments,omitempty" gorm:"foreignKey:OrderID"`
	Shipments     []Shipping      `json:"shipping,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem は注文明細
type OrderItem struct {
	Base
	OrderID   uint            `json:"orderId" gorm:"not null;index"`
	ProductID uint            `json:"productId" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// LineTotal は数量×単価
func LineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
