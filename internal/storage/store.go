// Package storage persists characters, conversations and accounts with gorm.
package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/easeaico/liveroom/internal/apperr"
)

// Store holds the DB pool and repositories.
type Store struct {
	db            *gorm.DB
	Characters    *CharacterRepo
	Conversations *ConversationRepo
	Accounts      *AccountRepo
}

// NewStore initializes the PostgreSQL pool and repositories.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewStoreFromDB(db), nil
}

// NewStoreFromDB wraps an already opened gorm handle.
func NewStoreFromDB(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Characters:    NewCharacterRepo(db),
		Conversations: NewConversationRepo(db),
		Accounts:      NewAccountRepo(db),
	}
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&categoryModel{},
		&subcategoryModel{},
		&characterModel{},
		&conversationModel{},
		&messageModel{},
		&accountModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

// notFound converts gorm's missing-record error into the not_found kind.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return nil
}
