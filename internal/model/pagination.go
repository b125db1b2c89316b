package model

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListParams は一覧取得のページング・検索条件
type ListParams struct {
	Page   int
	Limit  int
	Search string
	// Filters maps a column to an equality value; keys come from services, never from clients.
	Filters map[string]interface{}
}

// Normalize はデフォルト値と上限を適用したコピーを返す
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Beyond reports whether the page starts after the last of total rows.
// Call it before Offset: a page past the end may not have a representable offset.
func (p ListParams) Beyond(total int64) bool {
	if p.Limit < 1 {
		return true
	}
	pages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	return int64(p.Page) > pages
}

// WithFilter returns a copy of p carrying one more equality filter.
func (p ListParams) WithFilter(column string, value interface{}) ListParams {
	filters := make(map[string]interface{}, len(p.Filters)+1)
	for k, v := range p.Filters {
		filters[k] = v
	}
	filters[column] = value
	p.Filters = filters
	return p
}

// Page はページング済みの一覧結果
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

func (p *Page[T]) TotalPages() int {
	if p.Limit < 1 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}
