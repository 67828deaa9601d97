package models

import (
	"content-eval/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB global database handle.
var DB *gorm.DB

// InitDB opens the sqlite database and migrates the schema.
func InitDB(cfg *config.Config) error {
	var err error

	DB, err = gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return AutoMigrate(DB)
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Experiment{},
		&Task{},
		&Generation{},
		&BlindMapping{},
		&Evaluation{},
	)
}

// GetDB returns the global database handle.
func GetDB() *gorm.DB {
	return DB
}
