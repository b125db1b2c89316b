package repository

import (
	"context"
	"fmt"
	"strings"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	OrderByName   = "name ASC, id ASC"
	OrderByNewest = "created_at DESC, id DESC"
)

// UniqueField は一意カラムとAPI上のフィールド名の対応
type UniqueField struct {
	Column string
	Field  string
}

// Options はエンティティごとの一覧・検索・一意制約の設定
type Options struct {
	// Resource names the entity in NotFound messages.
	Resource      string
	SearchColumns []string
	DefaultOrder  string
	// Preloads apply to FindByID, ListPreloads to List.
	Preloads     []string
	ListPreloads []string
	UniqueFields []UniqueField
}

// Repository は単一エンティティに対する汎用gormリポジトリ
type Repository[T any] struct {
	db   *gorm.DB
	opts Options
}

// New は新しいリポジトリを作成
func New[T any](db *gorm.DB, opts Options) *Repository[T] {
	if opts.DefaultOrder == "" {
		opts.DefaultOrder = "id ASC"
	}
	return &Repository[T]{db: db, opts: opts}
}

// WithTx returns a copy bound to tx; used inside db.Transaction.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx, opts: r.opts}
}

// DB はcontext付きのセッションを返す
func (r *Repository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *Repository[T]) Options() Options {
	return r.opts
}

// FindByID はIDでレコードを取得。存在しなければ NotFound
func (r *Repository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	query := r.DB(ctx)
	for _, preload := range r.opts.Preloads {
		query = query.Preload(preload)
	}

	var entity T
	if err := query.First(&entity, id).Error; err != nil {
		if IsNotFound(err) {
			return nil, apperror.NotFound(r.opts.Resource, id)
		}
		return nil, apperror.Internal(fmt.Sprintf("failed to get %s", r.opts.Resource), err)
	}
	return &entity, nil
}

// List はフィルタ・検索・安定した並び順でページングした一覧を返す
func (r *Repository[T]) List(ctx context.Context, params model.ListParams) (*model.Page[T], error) {
	params = params.Normalize()

	query := r.DB(ctx).Model(new(T))
	for column, value := range params.Filters {
		query = query.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
	if params.Search != "" && len(r.opts.SearchColumns) > 0 {
		query = r.applySearch(query, params.Search)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperror.Internal(fmt.Sprintf("failed to count %s", r.opts.Resource), err)
	}

	items := make([]T, 0, params.Limit)
	if !params.Beyond(total) {
		find := query.Session(&gorm.Session{})
		for _, preload := range r.opts.ListPreloads {
			find = find.Preload(preload)
		}
		if err := find.Order(r.opts.DefaultOrder).
			Offset(params.Offset()).
			Limit(params.Limit).
			Find(&items).Error; err != nil {
			return nil, apperror.Internal(fmt.Sprintf("failed to list %s", r.opts.Resource), err)
		}
	}

	return &model.Page[T]{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}, nil
}

// applySearch は検索カラムのいずれかに部分一致（大文字小文字を区別しない）
func (r *Repository[T]) applySearch(query *gorm.DB, term string) *gorm.DB {
	pattern := "%" + strings.ToLower(term) + "%"
	conditions := make([]string, 0, len(r.opts.SearchColumns))
	args := make([]interface{}, 0, len(r.opts.SearchColumns))
	for _, column := range r.opts.SearchColumns {
		conditions = append(conditions, fmt.Sprintf("LOWER(%s) LIKE ?", column))
		args = append(args, pattern)
	}
	return query.Where("("+strings.Join(conditions, " OR ")+")", args...)
}

// Create はレコードを挿入。一意制約違反は Conflict に変換
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.DB(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return r.translate("create", err)
	}
	return nil
}

// Updates writes only the given columns; updated_at is refreshed by gorm.
func (r *Repository[T]) Updates(ctx context.Context, entity *T, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return r.Touch(ctx, entity)
	}
	if err := r.DB(ctx).Model(entity).Omit(clause.Associations).Updates(columns).Error; err != nil {
		return r.translate("update", err)
	}
	return nil
}

// Touch は updated_at のみ更新
func (r *Repository[T]) Touch(ctx context.Context, entity *T) error {
	if err := r.DB(ctx).Model(entity).Update("updated_at", r.db.NowFunc()).Error; err != nil {
		return r.translate("update", err)
	}
	return nil
}

// Delete はレコードを物理削除。対象がなければ NotFound
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	result := r.DB(ctx).Delete(new(T), id)
	if result.Error != nil {
		return r.translate("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound(r.opts.Resource, id)
	}
	return nil
}

// Exists reports whether a row with column = value exists, ignoring excludeID when non-zero.
func (r *Repository[T]) Exists(ctx context.Context, column string, value interface{}, excludeID uint) (bool, error) {
	query := r.DB(ctx).Model(new(T)).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, apperror.Internal(fmt.Sprintf("failed to check %s", r.opts.Resource), err)
	}
	return count > 0, nil
}

// ExistsByID は参照チェック用
func (r *Repository[T]) ExistsByID(ctx context.Context, id uint) (bool, error) {
	return r.Exists(ctx, "id", id, 0)
}

// CheckUnique は事前の一意性チェック。最終的な判定はDBの一意制約に任せる
func (r *Repository[T]) CheckUnique(ctx context.Context, field UniqueField, value interface{}, excludeID uint) error {
	exists, err := r.Exists(ctx, field.Column, value, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.Conflict(field.Field)
	}
	return nil
}

// UniqueField looks up the configured unique field for column.
func (r *Repository[T]) UniqueField(column string) UniqueField {
	for _, f := range r.opts.UniqueFields {
		if f.Column == column {
			return f
		}
	}
	return UniqueField{Column: column, Field: column}
}

func (r *Repository[T]) translate(op string, err error) error {
	if IsDuplicateKey(err) {
		return apperror.Conflict(r.conflictField(err))
	}
	return apperror.Internal(fmt.Sprintf("failed to %s %s", op, r.opts.Resource), err)
}

// conflictField はエラーメッセージ中のカラム名から衝突したフィールドを推定
func (r *Repository[T]) conflictField(err error) string {
	msg := err.Error()
	for _, f := range r.opts.UniqueFields {
		if strings.Contains(msg, "."+f.Column) || strings.Contains(msg, "_"+f.Column) {
			return f.Field
		}
	}
	if len(r.opts.UniqueFields) > 0 {
		return r.opts.UniqueFields[0].Field
	}
	return "id"
}
