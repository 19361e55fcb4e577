// Package attendance turns raw per-day attendance-exception rows into
// contiguous ranges for presentation. Ranges are never persisted.
package attendance

import (
	"sort"
	"time"

	"campanile/api/internal/model"
)

// Consolidate merges a single student's exception rows into ranges.
// Only absence rows merge, and only onto an open absence range with a
// matching justified flag whose last day is exactly one day earlier.
// Late, short-delay, and early-exit rows each become their own
// single-day range. Output preserves the first-seen order of each
// range's start.
func Consolidate(rows []model.AttendanceException) []model.AttendanceRange {
	sorted := make([]model.AttendanceException, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Day.Before(sorted[j].Day)
	})

	var ranges []*model.AttendanceRange
	for _, row := range sorted {
		day := truncateDay(row.Day)

		if row.Kind == model.ExceptionAbsence {
			if open := findOpenRange(ranges, row.Justified, day); open != nil {
				open.To = day
				if row.LastModifiedAt.After(open.LastModifiedAt) {
					open.LastModifiedAt = row.LastModifiedAt
				}
				continue
			}
		}

		ranges = append(ranges, &model.AttendanceRange{
			Kind:           row.Kind,
			From:           day,
			To:             day,
			Description:    row.Description,
			Justified:      row.Justified,
			AuthorEmail:    row.AuthorEmail,
			StudentEmail:   row.StudentEmail,
			CreatedAt:      row.CreatedAt,
			LastModifiedAt: row.LastModifiedAt,
		})
	}

	out := make([]model.AttendanceRange, len(ranges))
	for i, r := range ranges {
		out[i] = *r
	}
	return out
}

// findOpenRange scans for an absence range the day can extend. At most
// one justified and one unjustified absence range can be open at once,
// so the scan stays short.
func findOpenRange(ranges []*model.AttendanceRange, justified bool, day time.Time) *model.AttendanceRange {
	for _, r := range ranges {
		if r.Kind != model.ExceptionAbsence || r.Justified != justified {
			continue
		}
		if day.Sub(r.To) == 24*time.Hour {
			return r
		}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
