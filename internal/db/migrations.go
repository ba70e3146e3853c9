package db

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/aTrapDeer/portfolio-backend/internal/models"
)

func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20250101_create_portfolio_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(models.All()...)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("messages", "experiences", "skills", "projects")
			},
		},
	}
}

// Migrate applies every pending migration.
func Migrate(gdb *gorm.DB) error {
	return gormigrate.New(gdb, gormigrate.DefaultOptions, Migrations()).Migrate()
}

// RollbackLast undoes the most recently applied migration.
func RollbackLast(gdb *gorm.DB) error {
	return gormigrate.New(gdb, gormigrate.DefaultOptions, Migrations()).RollbackLast()
}
