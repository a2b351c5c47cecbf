// Package load implements the Loader (C7): batching a stream of
// focus.Record into the billing store via a merge-on-key upsert, with
// a bounded per-batch failure tolerance and a best-effort
// mark-processed pass over the RawBlobs that fed the batch.
package load

import (
	"context"
	"time"

	"github.com/rshade/billingfocus/focus"
	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/store"
)

// DefaultBatchSize is the default merge-batch size, per spec.md §4.7.
const DefaultBatchSize = 500

// MaxBatchFailureRatio is the fraction of batches within a run that may
// fail before the whole Load stage is considered stage-fatal.
const MaxBatchFailureRatio = 0.10

// Loader merges focus.Record values into a store.Store in fixed-size
// batches.
type Loader struct {
	Store     store.Store
	BatchSize int
	// Now is injectable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

// New constructs a Loader with DefaultBatchSize.
func New(s store.Store) *Loader {
	return &Loader{Store: s, BatchSize: DefaultBatchSize}
}

// Summary is the outcome of a Load call.
type Summary struct {
	BatchesTotal   int
	BatchesFailed  int
	RecordsLoaded  int
	RecordsFailed  int
	MarkProcessedWarning string // non-empty if the best-effort mark-processed pass failed
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loader) batchSize() int {
	if l.BatchSize > 0 {
		return l.BatchSize
	}
	return DefaultBatchSize
}

// Load upserts records in batches, tracking failures. rawBlobIDs is the
// full set of RawBlob ids that produced records, used for the
// best-effort mark-processed pass once all batches have been attempted.
// Load returns a *pipelineerr.Error with Kind LoadConflict only when the
// batch failure ratio exceeds MaxBatchFailureRatio; individual batch
// failures below that bound are reported in Summary without an error.
//
// If ctx is cancelled between batches, Load does not simply abandon the
// batches it already committed: every blob in rawBlobIDs whose records
// were entirely contained in already-committed batches is still marked
// processed (on a detached context, since ctx is already done) before
// the Cancelled error is returned. A blob with records split across the
// cancellation boundary is left unmarked, so a later run retries it
// whole rather than re-inserting already-loaded rows for no reason while
// also not skipping the rest of it.
func (l *Loader) Load(ctx context.Context, records []focus.Record, rawBlobIDs []string) (Summary, error) {
	var summary Summary
	size := l.batchSize()

	blobTotal := make(map[string]int, len(rawBlobIDs))
	for _, rec := range records {
		if rec.XRawBillingDataID != "" {
			blobTotal[rec.XRawBillingDataID]++
		}
	}
	blobCommitted := make(map[string]int, len(blobTotal))

	for start := 0; start < len(records); start += size {
		select {
		case <-ctx.Done():
			return l.markCommittedThenCancel(ctx, summary, blobTotal, blobCommitted)
		default:
		}

		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		summary.BatchesTotal++

		result, err := l.Store.UpsertFocus(ctx, batch)
		if err != nil {
			summary.BatchesFailed++
			summary.RecordsFailed += len(batch)
			continue
		}
		summary.RecordsLoaded += result.Inserted + result.Updated
		summary.RecordsFailed += result.Failed
		for _, rec := range batch {
			if rec.XRawBillingDataID != "" {
				blobCommitted[rec.XRawBillingDataID]++
			}
		}
	}

	if summary.BatchesTotal > 0 {
		ratio := float64(summary.BatchesFailed) / float64(summary.BatchesTotal)
		if ratio > MaxBatchFailureRatio {
			return summary, pipelineerr.New(pipelineerr.LoadConflict, "load", "batch failure ratio exceeded tolerance")
		}
	}

	if len(rawBlobIDs) > 0 {
		if _, err := l.Store.MarkProcessed(ctx, rawBlobIDs, l.now()); err != nil {
			summary.MarkProcessedWarning = "mark-processed pass failed; blobs will be retried by a subsequent run: " + err.Error()
		}
	}

	return summary, nil
}

// markCommittedThenCancel runs the mark-processed pass over every blob
// whose total record count has already been fully committed, then
// returns summary alongside the Cancelled error. It uses a context
// detached from ctx's cancellation so the mark-processed call itself is
// not immediately aborted by the same ctx.Done() that triggered it.
func (l *Loader) markCommittedThenCancel(ctx context.Context, summary Summary, blobTotal, blobCommitted map[string]int) (Summary, error) {
	var ready []string
	for id, total := range blobTotal {
		if blobCommitted[id] == total {
			ready = append(ready, id)
		}
	}
	if len(ready) > 0 {
		if _, err := l.Store.MarkProcessed(context.WithoutCancel(ctx), ready, l.now()); err != nil {
			summary.MarkProcessedWarning = "mark-processed pass failed; blobs will be retried by a subsequent run: " + err.Error()
		}
	}
	return summary, pipelineerr.Wrap(pipelineerr.Cancelled, "load", "cancelled at batch boundary", ctx.Err())
}
