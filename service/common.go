package service

import (
	"fmt"

	"yatube/app/config"
	"yatube/app/repositories"
	"yatube/app/repositories/sqlstore"

	"gorm.io/gorm"
)

// Database and backup locations used by the maintenance commands; the root
// command sets them from the loaded config.
var (
	dbPath    = "data/badger"
	backupDir = "data/backups"
)

// openStore opens the repositories of the configured storage driver.
func openStore(cfg *config.Config) (*repositories.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger, "":
		db, err := repositories.OpenBadger(cfg.Storage.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("open badger at %s: %w", cfg.Storage.BadgerPath, err)
		}
		return repositories.NewBadgerStore(db), nil
	case config.DriverSQLite:
		db, err := sqlstore.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite at %s: %w", cfg.Storage.SQLitePath, err)
		}
		return migrated(db)
	case config.DriverPostgres:
		db, err := sqlstore.OpenPostgres(sqlstore.PostgresConfig{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Name:     cfg.DB.Name,
			SSLMode:  cfg.DB.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return migrated(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func migrated(db *gorm.DB) (*repositories.Store, error) {
	store := sqlstore.NewStore(db)
	if err := sqlstore.Migrate(db); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return store, nil
}
