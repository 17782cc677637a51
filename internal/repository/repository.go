package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// Filter is a set of column = value predicates combined with AND.
type Filter map[string]any

// Repository is generic CRUD over one gorm model. With soft delete enabled,
// reads skip rows flagged is_deleted unless the filter names is_deleted
// itself or the repository is Unscoped.
type Repository[T any] struct {
	db         *storage.Postgres
	softDelete bool
	order      string
}

type Option func(*options)

type options struct {
	softDelete bool
	order      string
}

func WithSoftDelete() Option {
	return func(o *options) { o.softDelete = true }
}

func WithOrder(order string) Option {
	return func(o *options) { o.order = order }
}

func New[T any](db *storage.Postgres, opts ...Option) *Repository[T] {
	o := options{order: "id ASC"}
	for _, opt := range opts {
		opt(&o)
	}

	return &Repository[T]{db: db, softDelete: o.softDelete, order: o.order}
}

// Unscoped returns a view of the repository that also sees soft-deleted rows.
func (r *Repository[T]) Unscoped() *Repository[T] {
	return &Repository[T]{db: r.db, order: r.order}
}

func (r *Repository[T]) query(ctx context.Context, filter Filter) *gorm.DB {
	q := r.db.DB.WithContext(ctx).Model(new(T))
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	if r.softDelete {
		if _, explicit := filter["is_deleted"]; !explicit {
			q = q.Where("is_deleted = ?", false)
		}
	}
	return q
}

// Get returns the first match or nil when nothing matches.
func (r *Repository[T]) Get(ctx context.Context, filter Filter) (*T, error) {
	var entity T
	err := r.query(ctx, filter).First(&entity).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// GetUnscoped is Get that also sees soft-deleted rows.
func (r *Repository[T]) GetUnscoped(ctx context.Context, filter Filter) (*T, error) {
	return r.Unscoped().Get(ctx, filter)
}

// GetMulti returns one page of matches plus the total match count.
// A non-positive limit returns every match.
func (r *Repository[T]) GetMulti(ctx context.Context, filter Filter, offset, limit int) ([]T, int64, error) {
	var total int64
	if err := r.query(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []T
	q := r.query(ctx, filter).Order(r.order).Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *Repository[T]) Exists(ctx context.Context, filter Filter) (bool, error) {
	var count int64
	err := r.query(ctx, filter).Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.db.DB.WithContext(ctx).Create(entity).Error)
}

// Update applies values to every match. Matching nothing is not an error.
func (r *Repository[T]) Update(ctx context.Context, filter Filter, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	return translate(r.query(ctx, filter).Updates(values).Error)
}

// Delete soft-deletes when enabled and hard-deletes otherwise.
func (r *Repository[T]) Delete(ctx context.Context, filter Filter) error {
	if !r.softDelete {
		return r.HardDelete(ctx, filter)
	}

	return r.query(ctx, filter).Updates(map[string]any{
		"is_deleted": true,
		"deleted_at": time.Now().UTC(),
	}).Error
}

// HardDelete removes rows regardless of soft-delete state.
func (r *Repository[T]) HardDelete(ctx context.Context, filter Filter) error {
	if len(filter) == 0 {
		return errors.New("refusing to delete without a filter")
	}
	return r.db.DB.WithContext(ctx).Where(map[string]any(filter)).Delete(new(T)).Error
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.Wrap(apperrors.KindDuplicateValue, "Duplicate value", err)
	}
	return err
}
