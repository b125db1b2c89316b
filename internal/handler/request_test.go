package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newContext(method, target, body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestListParams(t *testing.T) {
	c := newContext(http.MethodGet, "/api/orders?page=2&limit=500&search=+ord+&status=paid&customerId=7&ignored=1", "")
	params, err := listParams(c, map[string]string{"status": "status", "customerId": "customer_id"})
	require.NoError(t, err)

	require.Equal(t, 2, params.Page)
	require.Equal(t, model.MaxLimit, params.Limit)
	require.Equal(t, "ord", params.Search)
	require.Equal(t, map[string]interface{}{"status": "paid", "customer_id": uint(7)}, params.Filters)
}

func TestListParamsDefaults(t *testing.T) {
	c := newContext(http.MethodGet, "/api/customers?page=abc&limit=-3", "")
	params, err := listParams(c, nil)
	require.NoError(t, err)

	require.Equal(t, model.DefaultPage, params.Page)
	require.Equal(t, model.DefaultLimit, params.Limit)
	require.Empty(t, params.Filters)
}

func TestListParamsRejectsNonIntegerIDFilter(t *testing.T) {
	filters := map[string]string{"orderId": "order_id", "status": "shipping_status"}
	for _, raw := range []string{"abc", "0", "-2", "1.5"} {
		c := newContext(http.MethodGet, "/api/shipping?orderId="+raw, "")
		_, err := listParams(c, filters)
		require.ErrorIs(t, err, apperror.ErrValidation, raw)
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		require.Equal(t, "must be a positive integer", appErr.Fields["orderId"])
	}

	// 文字列カラムのフィルタはそのまま渡す
	c := newContext(http.MethodGet, "/api/shipping?status=42", "")
	params, err := listParams(c, filters)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"shipping_status": "42"}, params.Filters)
}

func TestBindJSONReportsBodyErrors(t *testing.T) {
	var dst struct {
		Stock int `json:"stock"`
	}

	c := newContext(http.MethodPost, "/", `{"stock":"many"}`)
	require.False(t, bindJSON(c, &dst))
	appErr, ok := apperror.As(c.Errors.Last().Err)
	require.True(t, ok)
	require.Equal(t, apperror.KindValidation, appErr.Kind)
	require.Contains(t, appErr.Fields, "stock")

	c = newContext(http.MethodPost, "/", `{"stock":`)
	require.False(t, bindJSON(c, &dst))
	appErr, _ = apperror.As(c.Errors.Last().Err)
	require.Contains(t, appErr.Fields, "body")

	c = newContext(http.MethodPost, "/", `{"stock":3}`)
	require.True(t, bindJSON(c, &dst))
	require.Equal(t, 3, dst.Stock)
}

func TestParseID(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-1"} {
		c := newContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := parseID(c, "Brand")
		require.False(t, ok, raw)
		require.ErrorIs(t, c.Errors.Last().Err, apperror.ErrNotFound)
	}

	c := newContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := parseID(c, "Brand")
	require.True(t, ok)
	require.EqualValues(t, 42, id)
}
