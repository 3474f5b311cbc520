package sqlstore

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/warp/schooladmin/domain"
)

// paged is satisfied by every filter through its embedded domain.Page.
type paged interface {
	Paging() domain.Page
}

// table is the gorm Repository for one entity. scope turns a filter into
// WHERE clauses; pagination and ordering are applied here.
type table[T any, F paged] struct {
	db     *gorm.DB
	entity string
	scope  func(*gorm.DB, F) *gorm.DB
}

func (t *table[T, F]) Create(ctx context.Context, v *T) error {
	if err := t.db.WithContext(ctx).Create(v).Error; err != nil {
		return translate(err, t.entity, nil)
	}
	return nil
}

func (t *table[T, F]) Get(ctx context.Context, id uint) (*T, error) {
	var v T
	if err := t.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, translate(err, t.entity, id)
	}
	return &v, nil
}

// Update writes every column, zero values included.
func (t *table[T, F]) Update(ctx context.Context, v *T) error {
	res := t.db.WithContext(ctx).Model(v).Select("*").Updates(v)
	if res.Error != nil {
		return translate(res.Error, t.entity, nil)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound(t.entity, nil)
	}
	return nil
}

func (t *table[T, F]) Delete(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate(res.Error, t.entity, id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound(t.entity, id)
	}
	return nil
}

func (t *table[T, F]) List(ctx context.Context, filter F) ([]T, error) {
	q := t.scope(t.db.WithContext(ctx).Model(new(T)), filter).Order("id")
	page := filter.Paging()
	if page.Skip > 0 {
		q = q.Offset(page.Skip)
	}
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	out := []T{}
	if err := q.Find(&out).Error; err != nil {
		return nil, errors.Wrapf(translate(err, t.entity, nil), "list %s", t.entity)
	}
	return out, nil
}

func (t *table[T, F]) DeleteMatching(ctx context.Context, filter F) (int64, error) {
	q := t.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	res := t.scope(q, filter).Delete(new(T))
	if res.Error != nil {
		return 0, errors.Wrapf(translate(res.Error, t.entity, nil), "delete %s", t.entity)
	}
	return res.RowsAffected, nil
}
