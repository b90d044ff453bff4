// Package store defines the log store's interfaces: an append-only
// writer, a last-write-wins config store, and the index-backed query
// surface. Implementations live in subpackages per backend.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qscale/logstore/pkg/record"
)

// AppendOptions tunes a single append. DedupKey opts in to idempotent
// retries: when set, an append that collides with an already-stored key
// returns the stored record's id instead of inserting a duplicate.
type AppendOptions struct {
	DedupKey string
}

// NewDedupKey returns a fresh idempotency key for callers that retry
// appends after an ambiguous StorageError.
func NewDedupKey() string {
	return uuid.NewString()
}

// TimeRange bounds a trail query. Zero values mean unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Writer is the append-only write surface. No update or delete is
// exposed for log records; their only destruction path is retention
// expiry.
type Writer interface {
	// Append validates the document against the collection's catalog
	// spec and inserts it, returning the generated id (hex).
	Append(ctx context.Context, kind record.Kind, doc record.Mapping, opts *AppendOptions) (string, error)

	// UpsertConfig writes a config entry keyed on key, last write wins.
	UpsertConfig(ctx context.Context, key string, value interface{}, description, updatedBy string) error
}

// Reader is the read-only query surface. Every query shape here is
// covered by the catalog's index plan; none requires a collection scan.
type Reader interface {
	// ActivityByUser returns a user's activity trail, newest first.
	// activityType narrows by record type when non-empty.
	ActivityByUser(ctx context.Context, userID, activityType string, tr TimeRange, limit int64) ([]record.ActivityRecord, error)

	// ActivityByAddress returns activity records for a source address,
	// newest first.
	ActivityByAddress(ctx context.Context, ipAddress string, limit int64) ([]record.ActivityRecord, error)

	// OperatorTrail returns an operator's audit trail, newest first.
	OperatorTrail(ctx context.Context, operator string, tr TimeRange, limit int64) ([]record.OperationRecord, error)

	// ResourceAudit returns operations on a resource type, optionally
	// narrowed by action, newest first.
	ResourceAudit(ctx context.Context, resourceType, action string, tr TimeRange, limit int64) ([]record.OperationRecord, error)

	// SubmissionsByQuestionnaire returns submissions for a
	// questionnaire, optionally narrowed by submission type, newest first.
	SubmissionsByQuestionnaire(ctx context.Context, questionnaireID, submissionType string, tr TimeRange, limit int64) ([]record.SubmissionRecord, error)

	// SubmissionsByUser returns a user's submission history, newest first.
	SubmissionsByUser(ctx context.Context, userID string, tr TimeRange, limit int64) ([]record.SubmissionRecord, error)

	// GetConfig fetches a config entry by its unique key.
	GetConfig(ctx context.Context, key string) (*record.ConfigEntry, error)

	// SearchActivity and SearchOperations run best-effort keyword
	// matches over the text-indexed fields, ranked by text score.
	SearchActivity(ctx context.Context, query string, limit int64) ([]record.ActivityRecord, error)
	SearchOperations(ctx context.Context, query string, limit int64) ([]record.OperationRecord, error)

	// Count returns the number of records in a collection. Used by
	// reporting and by the write-rejection tests.
	Count(ctx context.Context, kind record.Kind) (int64, error)
}
