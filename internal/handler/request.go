package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"

	"github.com/gin-gonic/gin"
)

// bindJSON はボディをデコードし、失敗時は検証エラーを登録してfalseを返す
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(bodyError(err))
		return false
	}
	return true
}

func bodyError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.FieldInvalid(typeErr.Field, "has an invalid type")
	}
	return apperror.Validation("Request body must be valid JSON.", map[string]string{"body": "is malformed"})
}

// parseID treats a non-numeric id as an unknown record.
func parseID(c *gin.Context, resource string) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		_ = c.Error(apperror.NotFound(resource, raw))
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// listParams はクエリ文字列からページング・検索・フィルタ条件を組み立てる
// Filters on *_id columns only accept positive integers.
func listParams(c *gin.Context, filters map[string]string) (model.ListParams, error) {
	params := model.ListParams{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		Search: c.Query("search"),
	}
	for param, column := range filters {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			continue
		}
		if !strings.HasSuffix(column, "_id") {
			params = params.WithFilter(column, value)
			continue
		}
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil || id == 0 {
			return model.ListParams{}, apperror.FieldInvalid(param, "must be a positive integer")
		}
		params = params.WithFilter(column, uint(id))
	}
	return params.Normalize(), nil
}

func principalOf(c *gin.Context) (*model.Principal, bool) {
	principal, ok := model.PrincipalFromContext(c.Request.Context())
	if !ok {
		_ = c.Error(apperror.Unauthenticated("authentication required"))
	}
	return principal, ok
}
