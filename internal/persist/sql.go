package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ledgerEntry is one key-value row.
type ledgerEntry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (ledgerEntry) TableName() string { return "ledger_entries" }

// SQLKV stores values in the ledger_entries table.
type SQLKV struct {
	db *gorm.DB
}

// OpenSQL opens a gorm connection for the given driver ("sqlite" or
// "postgres") and prepares the ledger_entries table.
func OpenSQL(driver, dsn string) (*SQLKV, error) {
	if dsn == "" {
		return nil, errors.New("sql kv: DSN is required")
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("sql kv: unsupported driver %q", driver)
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sql kv: open %s: %w", driver, err)
	}

	return NewSQLKV(db)
}

// NewSQLKV wraps an existing gorm connection and migrates the table.
func NewSQLKV(db *gorm.DB) (*SQLKV, error) {
	if err := db.AutoMigrate(&ledgerEntry{}); err != nil {
		return nil, fmt.Errorf("sql kv: migrate: %w", err)
	}
	return &SQLKV{db: db}, nil
}

// Get returns the value stored at key.
func (s *SQLKV) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrKeyNotFound
	}

	var entry ledgerEntry
	err := s.db.WithContext(ctx).Where(&ledgerEntry{Key: key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sql get %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set upserts value at key.
func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("sql set: key must not be empty")
	}

	entry := ledgerEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sql set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("sql delete: key must not be empty")
	}

	err := s.db.WithContext(ctx).Where(&ledgerEntry{Key: key}).Delete(&ledgerEntry{}).Error
	if err != nil {
		return fmt.Errorf("sql delete %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sql kv: get db handle: %w", err)
	}
	return sqlDB.Close()
}
