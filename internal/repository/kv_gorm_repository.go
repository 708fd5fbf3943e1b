package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormKVStore struct {
	db *gorm.DB
}

func NewGormKVStore(db *gorm.DB) KVStore {
	return &gormKVStore{db: db}
}

func (r *gormKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var e model.KVEntry
	if err := r.db.WithContext(ctx).Where("kv_key = ?", key).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return []byte(e.Value), nil
}

func (r *gormKVStore) Put(ctx context.Context, key string, value []byte) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.KVEntry{Key: key, Value: datatypes.JSON(value)}).Error
}

func (r *gormKVStore) Delete(ctx context.Context, key string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Where("kv_key = ?", key).Delete(&model.KVEntry{}).Error
}

func (r *gormKVStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var e model.KVEntry
		found := true
		if err := q.Where("kv_key = ?", key).First(&e).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}
		var current []byte
		if found {
			current = []byte(e.Value)
		}
		next, err := fn(current, found)
		if err != nil {
			if errors.Is(err, ErrSkipWrite) {
				return nil
			}
			return err
		}
		if !found {
			// Another writer may have inserted the key first; the transaction
			// rolls back and the caller can retry.
			if err := tx.Create(&model.KVEntry{Key: key, Value: datatypes.JSON(next)}).Error; err != nil {
				return fmt.Errorf("%w: insert %s: %v", ErrConflict, key, err)
			}
			return nil
		}
		return tx.Model(&model.KVEntry{}).
			Where("kv_key = ?", key).
			Updates(map[string]interface{}{
				"value":      datatypes.JSON(next),
				"updated_at": time.Now(),
			}).Error
	})
}
