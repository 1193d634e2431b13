package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/zendash/internal/client/storage"
)

// Get retrieves the value stored under key
func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM local_storage WHERE key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrKeyNotFound
		}
		return "", wrapClosed(fmt.Errorf("failed to get %s: %w", key, err))
	}

	return value, nil
}

// Set stores value under key
func (s *Storage) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO local_storage (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return wrapClosed(fmt.Errorf("failed to save %s: %w", key, err))
	}
	return nil
}

// Delete removes key; a missing key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM local_storage WHERE key = ?`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return wrapClosed(fmt.Errorf("failed to delete %s: %w", key, err))
	}
	return nil
}

// wrapClosed приводит ошибку закрытой БД к storage.ErrStorageClosed
func wrapClosed(err error) error {
	if strings.Contains(err.Error(), "sql: database is closed") {
		return fmt.Errorf("%w: %v", storage.ErrStorageClosed, err)
	}
	return err
}
