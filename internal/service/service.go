package service

import (
	"context"
	"fmt"
	"strings"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"
	"erp-admin/internal/repository"

	"gorm.io/gorm"
)

// ReadService は参照系の共通契約
type ReadService[T any] interface {
	Get(ctx context.Context, id uint) (*T, error)
	List(ctx context.Context, params model.ListParams) (*model.Page[T], error)
}

// CRUDService is the uniform contract every aggregate exposes to the HTTP layer.
type CRUDService[T any, C any, U any] interface {
	ReadService[T]
	Create(ctx context.Context, input *C) (*T, error)
	Update(ctx context.Context, id uint, input *U) (*T, error)
	Delete(ctx context.Context, id uint) error
}

// baseService は Get/List/Delete をリポジトリに委譲する
type baseService[T any] struct {
	db   *gorm.DB
	repo *repository.Repository[T]
}

func newBaseService[T any](db *gorm.DB, opts repository.Options) baseService[T] {
	return baseService[T]{db: db, repo: repository.New[T](db, opts)}
}

func (s *baseService[T]) Get(ctx context.Context, id uint) (*T, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *baseService[T]) List(ctx context.Context, params model.ListParams) (*model.Page[T], error) {
	return s.repo.List(ctx, params)
}

func (s *baseService[T]) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// checkReference は参照先の存在を確認し、なければ参照元フィールドの検証エラーを返す
func checkReference[T any](ctx context.Context, db *gorm.DB, field string, id uint) error {
	var count int64
	if err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperror.Internal(fmt.Sprintf("failed to check %s", field), err)
	}
	if count == 0 {
		return apperror.FieldInvalid(field, "does not exist")
	}
	return nil
}

// checkReferences verifies every id exists; field is reported as field[i].
func checkReferences[T any](ctx context.Context, db *gorm.DB, field string, ids []uint) ([]T, error) {
	records := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, apperror.Internal(fmt.Sprintf("failed to load %s", field), err)
	}
	found := make(map[uint]bool, len(records))
	for i := range records {
		found[idOf(&records[i])] = true
	}
	for i, id := range ids {
		if !found[id] {
			return nil, apperror.FieldInvalid(fmt.Sprintf("%s[%d]", field, i), "does not exist")
		}
	}
	return records, nil
}

// identified is satisfied by every model through the embedded model.Base.
type identified interface {
	GetID() uint
}

func idOf(v interface{}) uint {
	if i, ok := v.(identified); ok {
		return i.GetID()
	}
	return 0
}

// patch は部分更新のカラム集合
type patch map[string]interface{}

func (p patch) str(column string, v *string) {
	if v != nil {
		p[column] = strings.TrimSpace(*v)
	}
}

func (p patch) set(column string, v interface{}, present bool) {
	if present {
		p[column] = v
	}
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
