package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/smartcart/internal/models"
)

const memoryDSN = ":memory:"

type poolConfig struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
}

var (
	serverPool = poolConfig{maxOpen: 20, maxIdle: 10, maxLifetime: 30 * time.Minute, maxIdleTime: 5 * time.Minute}
	// An in-memory sqlite database lives and dies with its connection, so
	// the pool holds exactly one connection that is never recycled.
	memoryPool = poolConfig{maxOpen: 1, maxIdle: 1}
)

func (p poolConfig) apply(sqlDB *sql.DB) {
	sqlDB.SetMaxOpenConns(p.maxOpen)
	sqlDB.SetMaxIdleConns(p.maxIdle)
	sqlDB.SetConnMaxLifetime(p.maxLifetime)
	sqlDB.SetConnMaxIdleTime(p.maxIdleTime)
}

// closeOnError releases a pool that Open created before failing.
func closeOnError(sqlDB *sql.DB, err error) error {
	_ = sqlDB.Close()
	return err
}

func dialectorFor(dsn string) (gorm.Dialector, bool, error) {
	switch {
	case dsn == "" || dsn == memoryDSN || dsn == "sqlite::memory:":
		return sqlite.Open(memoryDSN), true, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), false, nil
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), strings.Contains(dsn, "mode=memory"), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		// lib/pq is the database/sql driver registered as "postgres".
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported DATABASE_URL scheme")
	}
}

// Open connects to the configured database and migrates the schema. An empty
// dsn yields a private in-memory sqlite database.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	dialector, memory, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:          true,
		TranslateError:       true,
		DisableAutomaticPing: true,
		NowFunc:              func() time.Time { return time.Now().UTC() },
		Logger: logger.New(log.New(os.Stderr, "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	pool := serverPool
	if memory {
		pool = memoryPool
	}
	pool.apply(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, closeOnError(sqlDB, fmt.Errorf("ping db: %w", err))
	}

	if err := Migrate(db.WithContext(ctx)); err != nil {
		return nil, closeOnError(sqlDB, err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
