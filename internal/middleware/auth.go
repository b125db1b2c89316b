package middleware

import (
	"context"
	"strings"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Authenticator はトークンからプリンシパルを解決する
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Principal, error)
}

// AuthMiddleware はJWT認証ミドルウェア
func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, err)
			return
		}

		// 権限はリクエストごとにDBから再評価される
		principal, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Request = c.Request.WithContext(model.ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperror.Unauthenticated("authorization header required")
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", apperror.Unauthenticated("invalid authorization header format")
	}
	return fields[1], nil
}

// GetPrincipalFromContext はコンテキストから認証済みユーザーを取得
func GetPrincipalFromContext(c *gin.Context) (*model.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := v.(*model.Principal)
	return principal, ok && principal != nil
}

// abort attaches err for ErrorHandler and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
