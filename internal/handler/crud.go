package handler

import (
	"fmt"
	"net/http"

	"erp-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// Resource はHTTP上のリソース表現
type Resource struct {
	// Collection は一覧レスポンスのキー (例: "customers")
	Collection string
	// Name is used in not-found and delete messages.
	Name string
	// Filters maps a query parameter to the column it filters on.
	Filters map[string]string
}

// ReadHandler は参照系エンドポイント
type ReadHandler[T any] struct {
	reader   service.ReadService[T]
	resource Resource
}

func NewReadHandler[T any](reader service.ReadService[T], resource Resource) *ReadHandler[T] {
	return &ReadHandler[T]{reader: reader, resource: resource}
}

// List は一覧を取得
func (h *ReadHandler[T]) List(c *gin.Context) {
	params, err := listParams(c, h.resource.Filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.reader.List(c.Request.Context(), params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := page.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		h.resource.Collection: items,
		"total":               page.Total,
		"page":                page.Page,
		"limit":               page.Limit,
		"totalPages":          page.TotalPages(),
	})
}

// Get は指定IDのレコードを取得
func (h *ReadHandler[T]) Get(c *gin.Context) {
	id, ok := parseID(c, h.resource.Name)
	if !ok {
		return
	}
	record, err := h.reader.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// CRUDHandler adds create/update/delete on top of ReadHandler.
type CRUDHandler[T any, C any, U any] struct {
	*ReadHandler[T]
	svc service.CRUDService[T, C, U]
}

func NewCRUDHandler[T any, C any, U any](svc service.CRUDService[T, C, U], resource Resource) *CRUDHandler[T, C, U] {
	return &CRUDHandler[T, C, U]{
		ReadHandler: NewReadHandler[T](svc, resource),
		svc:         svc,
	}
}

// Create は新しいレコードを作成
func (h *CRUDHandler[T, C, U]) Create(c *gin.Context) {
	var input C
	if !bindJSON(c, &input) {
		return
	}
	record, err := h.svc.Create(c.Request.Context(), &input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Update は指定されたフィールドのみ更新
func (h *CRUDHandler[T, C, U]) Update(c *gin.Context) {
	id, ok := parseID(c, h.resource.Name)
	if !ok {
		return
	}
	var input U
	if !bindJSON(c, &input) {
		return
	}
	record, err := h.svc.Update(c.Request.Context(), id, &input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *CRUDHandler[T, C, U]) Delete(c *gin.Context) {
	id, ok := parseID(c, h.resource.Name)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s deleted successfully", h.resource.Name)})
}
