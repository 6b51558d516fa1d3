// Package sqlstore implements the repositories on a relational database via GORM.
// Referential actions (cascade on user/post delete, set-null on group delete)
// are foreign key constraints, not application code.
package sqlstore

import (
	"errors"
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// OpenSQLite opens the SQLite file at path, or a private in-memory database
// when path is empty, with foreign key enforcement switched on.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := "file::memory:"
	if path != "" {
		dsn = "file:" + path
	}
	dsn += "?_pragma=foreign_keys(1)"

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	if path == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// PostgresConfig holds the connection settings for OpenPostgres.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// OpenPostgres connects to PostgreSQL.
func OpenPostgres(cfg PostgresConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// Migrate creates or updates the five tables and their constraints.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
}

// NewStore wires every SQL repository to db. Closing the store closes db.
func NewStore(db *gorm.DB) *repositories.Store {
	return repositories.NewStore(
		&UserRepository{db: db},
		&GroupRepository{db: db},
		&PostRepository{db: db},
		&CommentRepository{db: db},
		&FollowRepository{db: db},
		func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	)
}

// translate maps GORM errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return repositories.ErrNotFound
	}
	return err
}

// exists reports whether a row of model with the given primary key exists.
func exists(tx *gorm.DB, model interface{}, id int) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
