package db

import (
	"fmt"

	"avocare/models"

	"gorm.io/gorm"
)

// Migrate создает таблицы локального хранилища
func Migrate(orm *gorm.DB) error {
	if err := orm.AutoMigrate(&models.KVEntry{}); err != nil {
		return fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return nil
}
