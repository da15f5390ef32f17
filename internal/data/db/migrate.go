package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/pao-report-backend/internal/data/repos/records"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(records.Models()...)
}
