package handler

import (
	"net/http"

	"erp-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler は認証ハンドラー
type AuthHandler struct {
	authService *service.AuthenticationService
}

// NewAuthHandler は新しい認証ハンドラーを作成
func NewAuthHandler(authService *service.AuthenticationService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register はユーザー登録。登録直後にトークンを発行する
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login はログイン処理
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me は認証済みユーザーのプロフィールと有効な権限を返す
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}

	profile, err := h.authService.Me(c.Request.Context(), principal)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
