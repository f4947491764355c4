package db

import (
	"context"
	"errors"
	"fmt"

	"avocare/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// ErrNotFound - ключ отсутствует в хранилище
var ErrNotFound = models.ErrKeyNotFound

// KVStore - хранилище сессии в локальной SQLite базе
type KVStore struct {
	orm *gorm.DB
}

// Open открывает (или создает) файл базы и накатывает миграции
func Open(path string) (*KVStore, error) {
	orm, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := Migrate(orm); err != nil {
		return nil, err
	}
	return &KVStore{orm: orm}, nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	var entry models.KVEntry
	err := s.orm.WithContext(ctx).Where("name = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

// Set - upsert по первичному ключу
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value}
	return s.orm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.orm.WithContext(ctx).Where("name IN ?", keys).Delete(&models.KVEntry{}).Error
}

func (s *KVStore) Close() error {
	sqlDB, err := s.orm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
