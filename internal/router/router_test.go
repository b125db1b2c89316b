package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp-admin/internal/auth"
	"erp-admin/internal/logger"
	"erp-admin/internal/metrics"
	"erp-admin/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type APISuite struct {
	suite.Suite
	db         *gorm.DB
	engine     *gin.Engine
	adminToken string
}

func TestAPISuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewSeededDB(s.T())
	s.engine = New(Dependencies{
		DB:      s.db,
		Tokens:  auth.NewTokenManager("router-test-secret", time.Hour, "erp-admin"),
		Metrics: metrics.New(),
		Logger:  logger.Nop(),
	})

	rec, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": testutil.AdminUsername,
		"password": testutil.AdminPassword,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.adminToken = body["token"].(string)
}

// do はJSONリクエストを送り、レスポンスをマップとしてデコードする
func (s *APISuite) do(method, path, token string, payload interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	switch p := payload.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(p))
	default:
		raw, err := json.Marshal(p)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	body := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func (s *APISuite) id(body map[string]interface{}) uint {
	return uint(body["id"].(float64))
}

func (s *APISuite) register(username string) (string, uint) {
	rec, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@x.com",
		"password": "secret1",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return body["token"].(string), s.id(body["user"].(map[string]interface{}))
}

func (s *APISuite) roleID(name string) uint {
	rec, body := s.do(http.MethodGet, "/api/roles?search="+name, s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	for _, r := range body["roles"].([]interface{}) {
		role := r.(map[string]interface{})
		if role["name"] == name {
			return s.id(role)
		}
	}
	s.FailNow("role not found", name)
	return 0
}

func (s *APISuite) TestRegisterLoginAndMe() {
	token, _ := s.register("alice")
	s.NotEmpty(token)

	rec, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice2@x.com", "password": "secret1",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("conflict", body["error"])
	s.Contains(body["errors"], "username")

	rec, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid_credentials", body["error"])

	rec, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "secret1",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Bearer", body["tokenType"])
	s.NotContains(rec.Body.String(), "secret1")

	rec, body = s.do(http.MethodGet, "/api/auth/me", body["token"].(string), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("alice", body["username"])
	s.Equal([]interface{}{"viewer"}, body["roles"])
	s.Contains(body["permissions"], "view_brands")
	s.NotContains(body["permissions"], "create_brands")
}

func (s *APISuite) TestAuthenticationIsRequired() {
	rec, body := s.do(http.MethodGet, "/api/customers", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("unauthenticated", body["error"])

	rec, _ = s.do(http.MethodGet, "/api/customers", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/dashboard/stats", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestBrandScenario() {
	rec, body := s.do(http.MethodPost, "/api/brands", s.adminToken, map[string]string{"name": "Nike"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal("Nike", body["name"])
	brandID := s.id(body)

	rec, body = s.do(http.MethodPost, "/api/brands", s.adminToken, map[string]string{"name": "Nike"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("conflict", body["error"])
	s.Contains(body["errors"], "name")

	rec, body = s.do(http.MethodGet, "/api/brands?search=nik", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, body["total"])
	s.Len(body["brands"], 1)

	rec, body = s.do(http.MethodPut, fmt.Sprintf("/api/brands/%d", brandID), s.adminToken, map[string]string{"description": "Just do it"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Nike", body["name"])
	s.Equal("Just do it", body["description"])

	path := fmt.Sprintf("/api/brands/%d", brandID)
	rec, body = s.do(http.MethodDelete, path, s.adminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(body["message"])

	rec, body = s.do(http.MethodDelete, path, s.adminToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("not_found", body["error"])

	rec, _ = s.do(http.MethodGet, "/api/brands/abc", s.adminToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestValidationErrors() {
	rec, body := s.do(http.MethodPost, "/api/customers", s.adminToken, `{"name":`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", body["error"])

	rec, body = s.do(http.MethodPost, "/api/customers", s.adminToken, map[string]string{"name": "Acme", "email": "nope"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", body["error"])
	s.Contains(body["errors"], "email")

	rec, body = s.do(http.MethodPost, "/api/products", s.adminToken, `{"name":"Shoe","sku":"S-1","price":10,"stock":"many"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(body["errors"], "stock")

	rec, body = s.do(http.MethodPost, "/api/products", s.adminToken, `{"name":"Shoe","sku":"S-1","price":0.004}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(map[string]interface{}{"price": "must have at most 2 decimal places"}, body["errors"])

	rec, body = s.do(http.MethodGet, "/api/payments?orderId=abc", s.adminToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", body["error"])
	s.Contains(body["errors"], "orderId")
}

func (s *APISuite) TestPagination() {
	for i := 0; i < 25; i++ {
		rec, _ := s.do(http.MethodPost, "/api/customers", s.adminToken, map[string]string{
			"name":  fmt.Sprintf("Customer %02d", i),
			"email": fmt.Sprintf("c%02d@x.com", i),
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
	}

	seen := map[float64]bool{}
	for page := 1; page <= 3; page++ {
		rec, body := s.do(http.MethodGet, fmt.Sprintf("/api/customers?page=%d&limit=10", page), s.adminToken, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.EqualValues(25, body["total"])
		s.EqualValues(3, body["totalPages"])
		s.EqualValues(page, body["page"])
		for _, c := range body["customers"].([]interface{}) {
			id := c.(map[string]interface{})["id"].(float64)
			s.False(seen[id])
			seen[id] = true
		}
	}
	s.Len(seen, 25)

	rec, body := s.do(http.MethodGet, "/api/customers?page=9&limit=10", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Empty(body["customers"])
	s.NotNil(body["customers"])

	rec, body = s.do(http.MethodGet, "/api/customers?page=9223372036854775807&limit=100", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Empty(body["customers"])
	s.EqualValues(25, body["total"])
}

func (s *APISuite) TestOrderScenario() {
	_, customer := s.do(http.MethodPost, "/api/customers", s.adminToken, map[string]string{"name": "Acme", "email": "acme@x.com"})
	_, product := s.do(http.MethodPost, "/api/products", s.adminToken, map[string]interface{}{
		"name": "Shoe", "sku": "SHOE-1", "price": "10.00", "stock": 5,
	})

	rec, body := s.do(http.MethodPost, "/api/orders", s.adminToken, map[string]interface{}{
		"order": map[string]interface{}{"customerId": s.id(customer), "totalAmount": 20},
		"items": []map[string]interface{}{{"productId": s.id(product), "quantity": 2, "price": 10}},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Regexp(`^ORD-\d{8}-[0-9A-F]{6}$`, body["orderNumber"])
	items := body["items"].([]interface{})
	s.Require().Len(items, 1)
	s.EqualValues(20, items[0].(map[string]interface{})["total"])
	orderID := s.id(body)

	rec, body = s.do(http.MethodPost, "/api/orders", s.adminToken, map[string]interface{}{
		"order": map[string]interface{}{"customerId": s.id(customer)},
		"items": []interface{}{},
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(body["errors"], "items")

	rec, body = s.do(http.MethodGet, fmt.Sprintf("/api/order-items?orderId=%d", orderID), s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, body["total"])

	rec, body = s.do(http.MethodGet, "/api/dashboard/stats", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, body["totalOrders"])
	s.EqualValues(20, body["totalRevenue"])

	rec, body = s.do(http.MethodGet, "/api/dashboard/top-products?limit=3", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(body["products"], 1)
}

func (s *APISuite) TestPermissionChangesApplyImmediately() {
	token, userID := s.register("bob")

	rec, body := s.do(http.MethodPost, "/api/brands", token, map[string]string{"name": "Adidas"})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("forbidden", body["error"])

	rec, _ = s.do(http.MethodGet, "/api/brands", token, nil)
	s.Equal(http.StatusOK, rec.Code)

	userPath := fmt.Sprintf("/api/users/%d", userID)
	rec, _ = s.do(http.MethodPut, userPath, s.adminToken, map[string]interface{}{"roleIds": []uint{s.roleID("manager")}})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// 同じトークンのまま新しい権限が反映される
	rec, _ = s.do(http.MethodPost, "/api/brands", token, map[string]string{"name": "Adidas"})
	s.Equal(http.StatusCreated, rec.Code)

	rec, _ = s.do(http.MethodPut, userPath, s.adminToken, map[string]interface{}{"roleIds": []uint{}})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/brands", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPut, userPath, s.adminToken, map[string]interface{}{"active": false})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestUsersCannotDeleteThemselves() {
	rec, body := s.do(http.MethodGet, "/api/auth/me", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, body = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", s.id(body)), s.adminToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", body["error"])
}

func (s *APISuite) TestPermissionsAreReadOnly() {
	token, _ := s.register("carol")

	rec, body := s.do(http.MethodGet, "/api/permissions?limit=100", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(37, body["total"])

	rec, _ = s.do(http.MethodPost, "/api/permissions", s.adminToken, map[string]string{"name": "launch_rockets"})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestHealthAndMetrics() {
	rec, body := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("healthy", body["status"])

	s.do(http.MethodGet, "/api/brands", s.adminToken, nil)

	rec, _ = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `erp_http_requests_total{method="GET",route="/api/brands",status="200"} 1`)
	s.Contains(rec.Body.String(), `erp_authorization_decisions_total{permission="view_brands",result="allowed"} 1`)
}

func (s *APISuite) TestCORSPreflight() {
	rec, _ := s.do(http.MethodOptions, "/api/customers", "", nil)
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}
