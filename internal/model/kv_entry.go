package model

import (
	"time"

	"gorm.io/datatypes"
)

// KVEntry is one serialized blob addressed by key. Value is declared longtext
// so SQLite keeps scalar documents such as `1` as text instead of numbers.
type KVEntry struct {
	Key       string         `gorm:"column:kv_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"column:value;type:longtext;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
