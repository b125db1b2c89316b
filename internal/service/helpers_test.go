package service

import (
	"context"
	"testing"
	"time"

	"erp-admin/internal/auth"
	"erp-admin/internal/model"
	"erp-admin/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	authn      *AuthenticationService
	authz      *AuthorizationService
	users      UserService
	roles      RoleService
	perms      PermissionService
	customers  CustomerService
	brands     BrandService
	categories CategoryService
	products   ProductService
	orders     OrderService
	items      OrderItemService
	payments   PaymentService
	shipping   ShippingService
	dashboard  DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSeededDB(t)
	authz := NewAuthorizationService(db)
	return &testEnv{
		db:         db,
		authn:      NewAuthenticationService(db, auth.NewTokenManager("test-secret", time.Hour, "erp-admin"), authz),
		authz:      authz,
		users:      NewUserService(db),
		roles:      NewRoleService(db),
		perms:      NewPermissionService(db),
		customers:  NewCustomerService(db),
		brands:     NewBrandService(db),
		categories: NewCategoryService(db),
		products:   NewProductService(db),
		orders:     NewOrderService(db),
		items:      NewOrderItemService(db),
		payments:   NewPaymentService(db),
		shipping:   NewShippingService(db),
		dashboard:  NewDashboardService(db),
	}
}

func str(s string) *string { return &s }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *testEnv) customer(t *testing.T, name, email string) *model.Customer {
	t.Helper()
	c, err := e.customers.Create(context.Background(), &CustomerInput{Name: name, Email: email})
	require.NoError(t, err)
	return c
}

func (e *testEnv) product(t *testing.T, name, sku, price string, categoryID *uint) *model.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), &ProductInput{
		Name: name, SKU: sku, Price: money(price), Stock: 10, CategoryID: categoryID,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) order(t *testing.T, customerID uint, status model.OrderStatus, total string, lines ...OrderLineInput) *model.Order {
	t.Helper()
	o, err := e.orders.Create(context.Background(), &CreateOrderInput{
		Order: OrderInput{CustomerID: customerID, Status: &status, TotalAmount: money(total)},
		Items: lines,
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) roleID(t *testing.T, name string) uint {
	t.Helper()
	var role model.Role
	require.NoError(t, e.db.Where("name = ?", name).First(&role).Error)
	return role.ID
}

func (e *testEnv) permissionIDs(t *testing.T, names ...model.PermissionName) []uint {
	t.Helper()
	var ids []uint
	require.NoError(t, e.db.Model(&model.Permission{}).Where("name IN ?", names).Pluck("id", &ids).Error)
	require.Len(t, ids, len(names))
	return ids
}
