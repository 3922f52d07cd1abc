package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// partialIndexes дополняют AutoMigrate индексами, которые нельзя описать тегами gorm
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_one_in_progress ON attempts (user_id, quiz_id) WHERE status = 'in_progress'`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_submitted_timestamp ON attempts (timestamp) WHERE status = 'submitted'`,
}

// AutoMigrate создает схему по сущностям. Используется для SQLite в тестах и локальной разработки;
// в production схема поднимается SQL-миграциями через MigrateDB.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Quiz{}, &entity.Question{}, &entity.Attempt{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index failed: %w", err)
		}
	}
	return nil
}
