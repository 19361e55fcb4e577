package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions in the sessions table. Rows are not
// deleted on expiry; the sweep job removes them later.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Create(ctx context.Context, idHash string, record Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, id_hash, email, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), idHash, record.Email, record.CreatedAt, record.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, idHash string) (Record, error) {
	var record Record
	row := s.pool.QueryRow(ctx, `
		SELECT email, created_at, expires_at
		FROM sessions
		WHERE id_hash = $1
	`, idHash)
	if err := row.Scan(&record.Email, &record.CreatedAt, &record.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrSessionNotFound
		}
		return Record{}, fmt.Errorf("select session: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Delete(ctx context.Context, idHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id_hash = $1`, idHash)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session dead before the cutoff and
// reports how many rows went away.
func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
