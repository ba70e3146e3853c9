// Package storage is the only code that reads or writes portfolio content.
package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no row has the requested id. It is an expected
// outcome, not a storage fault.
var ErrNotFound = errors.New("record not found")

// Table is the persistence adapter for one entity type.
type Table[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, id uint, changes map[string]any) (*T, error)
	Delete(ctx context.Context, id uint) error
}

// GormTable implements Table on a gorm connection. The same code serves the
// sqlite and mysql engines; the dialect is chosen when the connection opens.
type GormTable[T any] struct {
	db *gorm.DB
}

func NewGormTable[T any](db *gorm.DB) *GormTable[T] {
	return &GormTable[T]{db: db}
}

func (t *GormTable[T]) List(ctx context.Context) ([]T, error) {
	rows := []T{}
	if err := t.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *GormTable[T]) Get(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := t.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (t *GormTable[T]) Create(ctx context.Context, row *T) error {
	return t.db.WithContext(ctx).Create(row).Error
}

// Update applies changes (column -> value) to the row and returns it reloaded.
// An empty change set only loads the row.
func (t *GormTable[T]) Update(ctx context.Context, id uint, changes map[string]any) (*T, error) {
	var row T
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&row).Updates(changes).Error; err != nil {
			return fmt.Errorf("update: %w", err)
		}
		return tx.First(&row, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (t *GormTable[T]) Delete(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
