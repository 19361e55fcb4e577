package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campanile/api/internal/identity"
	"campanile/api/internal/model"
)

// PostgresStore looks accounts up in the users table and resolves the
// variant through the membership tables. Admin membership wins first;
// the schema's unique email constraint keeps an email out of more than
// one variant.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	var account model.Account
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, identity.ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("find account: %w", err)
	}

	accountType, err := s.resolveType(ctx, account.ID)
	if err != nil {
		return model.Account{}, err
	}
	account.Type = accountType
	return account, nil
}

func (s *PostgresStore) resolveType(ctx context.Context, userID string) (model.AccountType, error) {
	if ok, err := s.exists(ctx, `SELECT 1 FROM administrators WHERE user_id = $1`, userID); err != nil {
		return "", err
	} else if ok {
		return model.AccountAdmin, nil
	}
	if ok, err := s.exists(ctx, `SELECT 1 FROM teachers WHERE user_id = $1`, userID); err != nil {
		return "", err
	} else if ok {
		return model.AccountTeacher, nil
	}
	if ok, err := s.exists(ctx, `SELECT 1 FROM students WHERE user_id = $1`, userID); err != nil {
		return "", err
	} else if ok {
		return model.AccountStudent, nil
	}
	// A users row without a membership row is unreachable to login.
	return "", identity.ErrAccountNotFound
}

func (s *PostgresStore) exists(ctx context.Context, query, arg string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (`+query+`)`, arg).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("resolve account type: %w", err)
	}
	return exists, nil
}
