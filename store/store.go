// Package store defines the storage port every pipeline stage writes
// through: RawBlob persistence, FOCUS record upsert-on-merge-key, run
// bookkeeping, and provider lookup. Package store/sqlstore is the
// reference implementation against PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/focus"
)

// RawBlob is the full, unmodified payload one extractor invocation
// produced, preserved so normalization can be replayed without
// re-fetching.
type RawBlob struct {
	ID         string
	ProviderID string
	SourceName string
	Payload    []byte
	Processed  bool
	CreatedAt  time.Time
}

// UpsertResult reports the outcome of Store.UpsertFocus.
type UpsertResult struct {
	Inserted int
	Updated  int
	Failed   int
}

// Store is the port the coordinator and its stages depend on.
// Implementations must make UpsertFocus atomic per batch: either the
// whole batch's merge-on-key upsert commits, or none of it does.
type Store interface {
	SaveRawBlob(ctx context.Context, blob RawBlob) (string, error)
	MarkProcessed(ctx context.Context, ids []string, at time.Time) (int, error)

	// UnprocessedBlobIDs returns RawBlob ids not yet marked processed for
	// provider. It must never return an id this process has already
	// marked processed earlier in the same call chain, even across
	// retries within one batch — see DESIGN.md's open-question decision
	// on unprocessed-blob semantics.
	UnprocessedBlobIDs(ctx context.Context, providerID string, limit int) ([]string, error)

	UpsertFocus(ctx context.Context, records []focus.Record) (UpsertResult, error)

	GetProvider(ctx context.Context, id string) (*coordinatortypes.Provider, error)

	SaveRun(ctx context.Context, run coordinatortypes.PipelineRun) error
	UpdateRun(ctx context.Context, run coordinatortypes.PipelineRun) error
	GetRun(ctx context.Context, id string) (*coordinatortypes.PipelineRun, error)
	ListRuns(ctx context.Context, providerID string, limit int) ([]coordinatortypes.PipelineRun, error)
}
