package middleware

import (
	"erp-admin/internal/metrics"
	"erp-admin/internal/model"

	"github.com/gin-gonic/gin"
)

// Authorizer は権限判定を行う
type Authorizer interface {
	Authorize(principal *model.Principal, permission model.PermissionName) error
}

// RequirePermission は指定権限を持たないリクエストを403で拒否する
func RequirePermission(authz Authorizer, m *metrics.Metrics, permission model.PermissionName) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := GetPrincipalFromContext(c)

		err := authz.Authorize(principal, permission)
		if m != nil {
			m.ObserveAuthorization(string(permission), err == nil)
		}
		if err != nil {
			abort(c, err)
			return
		}

		c.Next()
	}
}
