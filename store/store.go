package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	_ "github.com/lib/pq"
)

//go:embed migrations.sql
var migrationSQL string

// PostgresStore is a KV backed by a single Postgres table.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	DB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := DB.Ping(); err != nil {
		_ = DB.Close()
		return nil, err
	}
	return &PostgresStore{DB: DB}, nil
}

// Migrate creates the kv table if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, migrationSQL)
	return err
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	var value []byte
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.DB.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key)
	return err
}
