package attendance

import (
	"testing"
	"time"

	"campanile/api/internal/model"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad day %q: %v", value, err)
	}
	return parsed
}

func row(t *testing.T, kind model.ExceptionKind, d string, justified bool) model.AttendanceException {
	t.Helper()
	return model.AttendanceException{
		Kind:         kind,
		Day:          day(t, d),
		Justified:    justified,
		StudentEmail: "student@example.local",
		AuthorEmail:  "teacher@example.local",
	}
}

func TestConsolidateMergesAdjacentAbsences(t *testing.T) {
	ranges := Consolidate([]model.AttendanceException{
		row(t, model.ExceptionAbsence, "2024-01-01", false),
		row(t, model.ExceptionAbsence, "2024-01-02", false),
		row(t, model.ExceptionAbsence, "2024-01-04", false),
	})
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if !ranges[0].From.Equal(day(t, "2024-01-01")) || !ranges[0].To.Equal(day(t, "2024-01-02")) {
		t.Fatalf("unexpected first range: %v..%v", ranges[0].From, ranges[0].To)
	}
	if !ranges[1].From.Equal(day(t, "2024-01-04")) || !ranges[1].To.Equal(day(t, "2024-01-04")) {
		t.Fatalf("unexpected second range: %v..%v", ranges[1].From, ranges[1].To)
	}
}

func TestConsolidateJustificationMismatchBreaksMerge(t *testing.T) {
	ranges := Consolidate([]model.AttendanceException{
		row(t, model.ExceptionAbsence, "2024-01-01", true),
		row(t, model.ExceptionAbsence, "2024-01-02", false),
	})
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if !ranges[0].Justified || ranges[1].Justified {
		t.Fatalf("expected justified then unjustified, got %+v", ranges)
	}
}

func TestConsolidateNonAbsenceNeverMerges(t *testing.T) {
	ranges := Consolidate([]model.AttendanceException{
		row(t, model.ExceptionLate, "2024-01-01", false),
		row(t, model.ExceptionLate, "2024-01-02", false),
	})
	if len(ranges) != 2 {
		t.Fatalf("expected 2 single-day ranges, got %d", len(ranges))
	}
	for _, r := range ranges {
		if !r.From.Equal(r.To) {
			t.Fatalf("expected single-day range, got %v..%v", r.From, r.To)
		}
	}
}

func TestConsolidateInterleavedJustifiedRuns(t *testing.T) {
	// An interleaved non-absence row must not close the absence run.
	ranges := Consolidate([]model.AttendanceException{
		row(t, model.ExceptionAbsence, "2024-02-01", true),
		row(t, model.ExceptionAbsence, "2024-02-02", true),
		row(t, model.ExceptionAbsence, "2024-02-03", true),
		row(t, model.ExceptionLate, "2024-02-02", false),
	})
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if ranges[0].Kind != model.ExceptionAbsence || !ranges[0].To.Equal(day(t, "2024-02-03")) {
		t.Fatalf("expected three-day absence run, got %+v", ranges[0])
	}
	if ranges[1].Kind != model.ExceptionLate {
		t.Fatalf("expected the late row in discovery order, got %+v", ranges[1])
	}
}

func TestConsolidateUnsortedInput(t *testing.T) {
	ranges := Consolidate([]model.AttendanceException{
		row(t, model.ExceptionAbsence, "2024-01-02", false),
		row(t, model.ExceptionAbsence, "2024-01-01", false),
	})
	if len(ranges) != 1 {
		t.Fatalf("expected one merged range, got %d", len(ranges))
	}
	if !ranges[0].From.Equal(day(t, "2024-01-01")) || !ranges[0].To.Equal(day(t, "2024-01-02")) {
		t.Fatalf("unexpected range: %v..%v", ranges[0].From, ranges[0].To)
	}
}

func TestConsolidateEmptyInput(t *testing.T) {
	if ranges := Consolidate(nil); len(ranges) != 0 {
		t.Fatalf("expected no ranges, got %d", len(ranges))
	}
}
