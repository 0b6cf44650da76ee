package gormstore

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"carservice/internal/adapters/out/gormstore/orderrepo"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenPostgres connects to PostgreSQL and migrates the schema.
func OpenPostgres(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return migrate(db)
}

// sqliteOptions are appended to every SQLite DSN.
const sqliteOptions = "_busy_timeout=5000&_foreign_keys=on"

// OpenSQLite opens (or creates) a SQLite database and migrates the schema. path may be
// a plain file name or a URI that already carries parameters, such as
// "file::memory:?cache=shared". The pool is limited to one connection because SQLite
// allows a single writer.
func OpenSQLite(path string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return migrate(db)
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteOptions
	}
	return path + "?" + sqliteOptions
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func migrate(db *gorm.DB) (*gorm.DB, error) {
	if err := db.AutoMigrate(&orderrepo.OrderDTO{}); err != nil {
		return nil, fmt.Errorf("migrate orders: %w", err)
	}
	return db, nil
}

func gormConfig(log *slog.Logger) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(slogWriter{log: log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// slogWriter routes GORM's printf-style log lines into the application logger.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}
