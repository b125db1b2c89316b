package router

import (
	"net/http"

	"erp-admin/internal/auth"
	"erp-admin/internal/handler"
	"erp-admin/internal/metrics"
	"erp-admin/internal/middleware"
	"erp-admin/internal/model"
	"erp-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies はルーター構築に必要な共有リソース
type Dependencies struct {
	DB      *gorm.DB
	Tokens  *auth.TokenManager
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// guard builds the permission middleware for one route.
type guard func(model.PermissionName) gin.HandlerFunc

// New はサービスを組み立て、全ルートを登録したginエンジンを返す
func New(deps Dependencies) *gin.Engine {
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	authzService := service.NewAuthorizationService(deps.DB)
	authService := service.NewAuthenticationService(deps.DB, deps.Tokens, authzService)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Metrics(m, "/metrics", "/health"),
		middleware.AccessLog(deps.Logger),
		middleware.Recovery(deps.Logger),
		middleware.CORS(),
		middleware.ErrorHandler(deps.Logger),
	)

	r.GET("/health", health(deps.DB))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")

	// Public routes
	authHandler := handler.NewAuthHandler(authService)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	protected.GET("/auth/me", authHandler.Me)

	can := func(permission model.PermissionName) gin.HandlerFunc {
		return middleware.RequirePermission(authzService, m, permission)
	}

	registerCRUD(protected, "/customers", can, model.CustomerPermissions,
		handler.NewCRUDHandler[model.Customer, service.CustomerInput, service.CustomerPatch](
			service.NewCustomerService(deps.DB),
			handler.Resource{Collection: "customers", Name: "Customer"}))
	registerCRUD(protected, "/brands", can, model.BrandPermissions,
		handler.NewCRUDHandler[model.Brand, service.NamedInput, service.NamedPatch](
			service.NewBrandService(deps.DB),
			handler.Resource{Collection: "brands", Name: "Brand"}))
	registerCRUD(protected, "/categories", can, model.CategoryPermissions,
		handler.NewCRUDHandler[model.Category, service.NamedInput, service.NamedPatch](
			service.NewCategoryService(deps.DB),
			handler.Resource{Collection: "categories", Name: "Category"}))
	registerCRUD(protected, "/products", can, model.ProductPermissions,
		handler.NewCRUDHandler[model.Product, service.ProductInput, service.ProductPatch](
			service.NewProductService(deps.DB),
			handler.Resource{Collection: "products", Name: "Product", Filters: map[string]string{
				"brandId":    "brand_id",
				"categoryId": "category_id",
			}}))
	registerCRUD(protected, "/orders", can, model.OrderPermissions,
		handler.NewCRUDHandler[model.Order, service.CreateOrderInput, service.OrderPatch](
			service.NewOrderService(deps.DB),
			handler.Resource{Collection: "orders", Name: "Order", Filters: map[string]string{
				"status":     "status",
				"customerId": "customer_id",
			}}))
	// 注文明細は注文の権限で保護する
	registerCRUD(protected, "/order-items", can, model.OrderPermissions,
		handler.NewCRUDHandler[model.OrderItem, service.OrderItemInput, service.OrderItemPatch](
			service.NewOrderItemService(deps.DB),
			handler.Resource{Collection: "orderItems", Name: "Order item", Filters: map[string]string{
				"orderId": "order_id",
			}}))
	registerCRUD(protected, "/payments", can, model.PaymentPermissions,
		handler.NewCRUDHandler[model.Payment, service.PaymentInput, service.PaymentPatch](
			service.NewPaymentService(deps.DB),
			handler.Resource{Collection: "payments", Name: "Payment", Filters: map[string]string{
				"orderId": "order_id",
			}}))
	registerCRUD(protected, "/shipping", can, model.ShippingPermissions,
		handler.NewCRUDHandler[model.Shipping, service.ShippingInput, service.ShippingPatch](
			service.NewShippingService(deps.DB),
			handler.Resource{Collection: "shipping", Name: "Shipping", Filters: map[string]string{
				"orderId": "order_id",
				"status":  "shipping_status",
			}}))
	registerCRUD(protected, "/users", can, model.UserPermissions,
		handler.NewCRUDHandler[model.User, service.UserInput, service.UserPatch](
			service.NewUserService(deps.DB),
			handler.Resource{Collection: "users", Name: "User"}))
	registerCRUD(protected, "/roles", can, model.RolePermissions,
		handler.NewCRUDHandler[model.Role, service.RoleInput, service.RolePatch](
			service.NewRoleService(deps.DB),
			handler.Resource{Collection: "roles", Name: "Role"}))

	permissionHandler := handler.NewReadHandler[model.Permission](
		service.NewPermissionService(deps.DB),
		handler.Resource{Collection: "permissions", Name: "Permission"})
	protected.GET("/permissions", can(model.ViewPermissions), permissionHandler.List)
	protected.GET("/permissions/:id", can(model.ViewPermissions), permissionHandler.Get)

	// ダッシュボードは認証済みであれば誰でも参照できる
	dashboardHandler := handler.NewDashboardHandler(service.NewDashboardService(deps.DB))
	dashboard := protected.Group("/dashboard")
	dashboard.GET("/stats", dashboardHandler.Stats)
	dashboard.GET("/recent-orders", dashboardHandler.RecentOrders)
	dashboard.GET("/top-products", dashboardHandler.TopProducts)
	dashboard.GET("/sales-by-category", dashboardHandler.SalesByCategory)

	return r
}

func registerCRUD[T any, C any, U any](g *gin.RouterGroup, path string, can guard, perms model.ResourcePermissions, h *handler.CRUDHandler[T, C, U]) {
	g.GET(path, can(perms.View), h.List)
	g.GET(path+"/:id", can(perms.View), h.Get)
	g.POST(path, can(perms.Create), h.Create)
	g.PUT(path+"/:id", can(perms.Edit), h.Update)
	g.DELETE(path+"/:id", can(perms.Delete), h.Delete)
}

// health はDB接続を確認する
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
	}
}
