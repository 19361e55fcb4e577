package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"campanile/api/internal/model"
)

// Repository reads and writes raw exception rows. Consolidation never
// happens here; callers fetch rows and merge in memory.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Source = (*Repository)(nil)

// ListByStudent returns a student's exception rows ordered by day
// ascending, the order Consolidate expects.
func (r *Repository) ListByStudent(ctx context.Context, studentEmail string) ([]model.AttendanceException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, day, description, justified, author_email, student_email, created_at, last_modified_at
		FROM attendance_exceptions
		WHERE student_email = $1
		ORDER BY day ASC
	`, studentEmail)
	if err != nil {
		return nil, fmt.Errorf("list attendance exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []model.AttendanceException
	for rows.Next() {
		var e model.AttendanceException
		if err := rows.Scan(
			&e.ID,
			&e.Kind,
			&e.Day,
			&e.Description,
			&e.Justified,
			&e.AuthorEmail,
			&e.StudentEmail,
			&e.CreatedAt,
			&e.LastModifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attendance exception: %w", err)
		}
		exceptions = append(exceptions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendance exceptions: %w", err)
	}
	return exceptions, nil
}

// Create inserts one raw row and returns it with id and timestamps set.
func (r *Repository) Create(ctx context.Context, e model.AttendanceException) (model.AttendanceException, error) {
	now := time.Now().UTC()
	e.ID = uuid.New().String()
	e.CreatedAt = now
	e.LastModifiedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance_exceptions (id, kind, day, description, justified, author_email, student_email, created_at, last_modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.Kind, e.Day, e.Description, e.Justified, e.AuthorEmail, e.StudentEmail, e.CreatedAt, e.LastModifiedAt)
	if err != nil {
		return model.AttendanceException{}, fmt.Errorf("insert attendance exception: %w", err)
	}
	return e, nil
}
