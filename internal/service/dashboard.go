package service

import (
	"context"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultDashboardLimit = 5

// DashboardStats はダッシュボードの集計値
type DashboardStats struct {
	TotalCustomers int64           `json:"totalCustomers"`
	TotalProducts  int64           `json:"totalProducts"`
	TotalOrders    int64           `json:"totalOrders"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

// TopProduct は商品別の販売実績
type TopProduct struct {
	ProductID uint            `json:"productId"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int64           `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// CategorySales はカテゴリ別の売上と構成比
type CategorySales struct {
	CategoryID uint            `json:"categoryId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// DashboardService computes every figure on request; nothing is cached.
type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	SalesByCategory(ctx context.Context) ([]CategorySales, error)
}

type dashboardServiceImpl struct {
	db *gorm.DB
}

// NewDashboardService はダッシュボードサービスを作成
func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardServiceImpl{db: db}
}

func dashboardLimit(limit int) int {
	if limit < 1 {
		return DefaultDashboardLimit
	}
	if limit > model.MaxLimit {
		return model.MaxLimit
	}
	return limit
}

func (s *dashboardServiceImpl) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&model.Customer{}, &stats.TotalCustomers},
		{&model.Product{}, &stats.TotalProducts},
		{&model.Order{}, &stats.TotalOrders},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, apperror.Internal("failed to count records", err)
		}
	}

	var revenue decimal.NullDecimal
	row := db.Model(&model.Order{}).
		Select("SUM(total_amount)").
		Where("status <> ?", model.OrderCancelled).
		Row()
	if err := row.Scan(&revenue); err != nil {
		return nil, apperror.Internal("failed to sum revenue", err)
	}
	stats.TotalRevenue = revenue.Decimal.Round(2)
	return stats, nil
}

func (s *dashboardServiceImpl) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	orders := make([]model.Order, 0, dashboardLimit(limit))
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Order("created_at DESC, id DESC").
		Limit(dashboardLimit(limit)).
		Find(&orders).Error
	if err != nil {
		return nil, apperror.Internal("failed to load recent orders", err)
	}
	return orders, nil
}

// TopProducts は取消以外の注文について商品別に数量・金額を集計し、数量の降順で返す
func (s *dashboardServiceImpl) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	rows := make([]TopProduct, 0, dashboardLimit(limit))
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.product_id AS product_id,
			COALESCE(products.name, '') AS name,
			COALESCE(products.sku, '') AS sku,
			SUM(order_items.quantity) AS quantity,
			SUM(order_items.total) AS total`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("orders.status <> ?", model.OrderCancelled).
		Group("order_items.product_id, products.name, products.sku").
		Order("SUM(order_items.quantity) DESC, order_items.product_id ASC").
		Limit(dashboardLimit(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("failed to aggregate top products", err)
	}
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return rows, nil
}

// SalesByCategory keeps categories without sales, reporting amount 0.
func (s *dashboardServiceImpl) SalesByCategory(ctx context.Context) ([]CategorySales, error) {
	rows := make([]CategorySales, 0)
	err := s.db.WithContext(ctx).
		Table("categories").
		Select(`categories.id AS category_id,
			categories.name AS name,
			COALESCE(SUM(CASE WHEN orders.id IS NOT NULL THEN order_items.total ELSE 0 END), 0) AS amount`).
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Joins("LEFT JOIN order_items ON order_items.product_id = products.id").
		Joins("LEFT JOIN orders ON orders.id = order_items.order_id AND orders.status <> ?", model.OrderCancelled).
		Group("categories.id, categories.name").
		Order("categories.name ASC, categories.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("failed to aggregate sales by category", err)
	}

	grand := decimal.Zero
	for i := range rows {
		rows[i].Amount = rows[i].Amount.Round(2)
		grand = grand.Add(rows[i].Amount)
	}
	hundred := decimal.NewFromInt(100)
	for i := range rows {
		if grand.IsZero() {
			rows[i].Percentage = decimal.Zero
			continue
		}
		rows[i].Percentage = rows[i].Amount.Div(grand).Mul(hundred).Round(2)
	}
	return rows, nil
}
