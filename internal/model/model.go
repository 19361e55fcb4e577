package model

import "time"

// AccountType discriminates the three account variants. An email
// belongs to exactly one variant at a time.
type AccountType string

const (
	AccountAdmin   AccountType = "admin"
	AccountStudent AccountType = "student"
	AccountTeacher AccountType = "teacher"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountAdmin, AccountStudent, AccountTeacher:
		return true
	}
	return false
}

type Account struct {
	ID           string
	Type         AccountType
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a server-held login record. ID is the opaque credential
// returned to the caller at creation; stores persist only its hash.
// ExpiresAt is fixed at creation and never extended.
type Session struct {
	ID        string
	Email     string
	Type      AccountType
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) HasExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ExceptionKind classifies a per-day attendance irregularity.
type ExceptionKind string

const (
	ExceptionAbsence    ExceptionKind = "absence"
	ExceptionLate       ExceptionKind = "late"
	ExceptionShortDelay ExceptionKind = "short-delay"
	ExceptionEarlyExit  ExceptionKind = "early-exit"
)

func (k ExceptionKind) Valid() bool {
	switch k {
	case ExceptionAbsence, ExceptionLate, ExceptionShortDelay, ExceptionEarlyExit:
		return true
	}
	return false
}

// AttendanceException is one raw row per calendar day per incident.
type AttendanceException struct {
	ID             string
	Kind           ExceptionKind
	Day            time.Time
	Description    string
	Justified      bool
	AuthorEmail    string
	StudentEmail   string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// AttendanceRange is the presentation-only merge of consecutive
// absence rows. Never persisted; recomputed on every read.
type AttendanceRange struct {
	Kind           ExceptionKind
	From           time.Time
	To             time.Time
	Description    string
	Justified      bool
	AuthorEmail    string
	StudentEmail   string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}
