package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration links a user to a webinar. At most one per (user, webinar).
type Registration struct {
	ID        uuid.UUID `json:"id"`
	WebinarID uuid.UUID `json:"webinar_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertStatus is the tagged outcome of an insert guarded by a unique constraint.
type InsertStatus int

const (
	InsertFailed InsertStatus = iota
	InsertCreated
	InsertAlreadyExists
)

func (s InsertStatus) String() string {
	switch s {
	case InsertCreated:
		return "created"
	case InsertAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

// InsertResult is returned by ledger inserts instead of a bare error so callers
// never have to inspect error text to detect duplicates.
type InsertResult struct {
	Status InsertStatus
	Err    error
}

// Created builds a successful InsertResult.
func Created() InsertResult { return InsertResult{Status: InsertCreated} }

// AlreadyExists builds an InsertResult for a duplicate row.
func AlreadyExists() InsertResult { return InsertResult{Status: InsertAlreadyExists} }

// Failed builds an InsertResult carrying err.
func Failed(err error) InsertResult { return InsertResult{Status: InsertFailed, Err: err} }

// OK reports whether the row exists after the insert.
func (r InsertResult) OK() bool {
	return r.Status == InsertCreated || r.Status == InsertAlreadyExists
}
