package models

import (
	"errors"
	"time"
)

// ErrKeyNotFound - ключ отсутствует в локальном хранилище
var ErrKeyNotFound = errors.New("key not found")

// KVEntry - строка локального хранилища сессии
type KVEntry struct {
	Key       string    `gorm:"column:name;primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
