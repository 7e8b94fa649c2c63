// Package db opens the SQL database that backs the shard store
package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"tickr/study-api/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	// Driver is sqlite or postgres
	Driver      string
	SQLitePath  string
	PostgresDSN string
	LogLevel    logger.LogLevel
	// MustExist refuses to create a missing SQLite file, e.g. when running
	// in a container where the host is expected to mount it
	MustExist bool
}

func New(o Options) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch o.Driver {
	case "sqlite":
		if o.MustExist {
			if _, err := os.Stat(o.SQLitePath); errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please mount it to %s", o.SQLitePath)
			}
		}

		dialector = sqlite.Open(o.SQLitePath)
	case "postgres":
		dialector = postgres.Open(o.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}

	if o.LogLevel == 0 {
		o.LogLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(o.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database, %w", o.Driver, err)
	}

	err = db.AutoMigrate(model.Shard{}, model.Migration{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
