package attendance

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"campanile/api/internal/model"
)

// Source is the exception-row port consumed by the HTTP surface.
type Source interface {
	ListByStudent(ctx context.Context, studentEmail string) ([]model.AttendanceException, error)
	Create(ctx context.Context, e model.AttendanceException) (model.AttendanceException, error)
}

// MemorySource is the in-memory adapter for tests and development.
type MemorySource struct {
	mu   sync.Mutex
	rows []model.AttendanceException
}

func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

var _ Source = (*MemorySource)(nil)

func (s *MemorySource) ListByStudent(_ context.Context, studentEmail string) ([]model.AttendanceException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AttendanceException
	for _, row := range s.rows {
		if row.StudentEmail == studentEmail {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (s *MemorySource) Create(_ context.Context, e model.AttendanceException) (model.AttendanceException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	s.rows = append(s.rows, e)
	return e, nil
}
