package load_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/focus"
	"github.com/rshade/billingfocus/load"
	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/store"
)

// fakeStore is an in-memory store.Store for exercising Loader without a
// database.
type fakeStore struct {
	upserted        []focus.Record
	failBatches     map[int]bool
	callCount       int
	markedProcessed []string
	markProcessedErr error

	// cancelAfterCalls, if non-zero, invokes cancelFunc once callCount
	// reaches it, simulating cancellation arriving mid-run rather than
	// before the first batch.
	cancelAfterCalls int
	cancelFunc       context.CancelFunc
}

func (f *fakeStore) SaveRawBlob(context.Context, store.RawBlob) (string, error) { return "blob-1", nil }

func (f *fakeStore) MarkProcessed(_ context.Context, ids []string, _ time.Time) (int, error) {
	if f.markProcessedErr != nil {
		return 0, f.markProcessedErr
	}
	f.markedProcessed = append(f.markedProcessed, ids...)
	return len(ids), nil
}

func (f *fakeStore) UnprocessedBlobIDs(context.Context, string, int) ([]string, error) { return nil, nil }

func (f *fakeStore) UpsertFocus(_ context.Context, records []focus.Record) (store.UpsertResult, error) {
	idx := f.callCount
	f.callCount++
	if f.failBatches[idx] {
		return store.UpsertResult{}, errors.New("constraint violation")
	}
	f.upserted = append(f.upserted, records...)
	if f.cancelAfterCalls > 0 && f.callCount == f.cancelAfterCalls && f.cancelFunc != nil {
		f.cancelFunc()
	}
	return store.UpsertResult{Inserted: len(records)}, nil
}

func (f *fakeStore) GetProvider(context.Context, string) (*coordinatortypes.Provider, error) { return nil, nil }
func (f *fakeStore) SaveRun(context.Context, coordinatortypes.PipelineRun) error              { return nil }
func (f *fakeStore) UpdateRun(context.Context, coordinatortypes.PipelineRun) error            { return nil }
func (f *fakeStore) GetRun(context.Context, string) (*coordinatortypes.PipelineRun, error)    { return nil, nil }
func (f *fakeStore) ListRuns(context.Context, string, int) ([]coordinatortypes.PipelineRun, error) {
	return nil, nil
}

func makeRecords(n int) []focus.Record {
	out := make([]focus.Record, n)
	for i := range out {
		out[i] = focus.Record{SurrogateID: string(rune('a' + i%26))}
	}
	return out
}

// makeRecordsForBlob builds n records that all carry blobID as their
// XRawBillingDataID, for tests asserting per-blob mark-processed behavior.
func makeRecordsForBlob(n int, blobID string) []focus.Record {
	out := make([]focus.Record, n)
	for i := range out {
		out[i] = focus.Record{SurrogateID: string(rune('a' + i%26)), XRawBillingDataID: blobID}
	}
	return out
}

func TestLoad_BatchesAndMarksProcessed(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{failBatches: map[int]bool{}}
	l := &load.Loader{Store: fs, BatchSize: 2}

	summary, err := l.Load(context.Background(), makeRecords(5), []string{"blob-a", "blob-b"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if summary.BatchesTotal != 3 {
		t.Errorf("BatchesTotal = %d, want 3", summary.BatchesTotal)
	}
	if summary.RecordsLoaded != 5 {
		t.Errorf("RecordsLoaded = %d, want 5", summary.RecordsLoaded)
	}
	if len(fs.markedProcessed) != 2 {
		t.Errorf("markedProcessed = %v, want 2 ids", fs.markedProcessed)
	}
}

func TestLoad_BelowFailureToleranceDoesNotFailStage(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{failBatches: map[int]bool{0: true}}
	l := &load.Loader{Store: fs, BatchSize: 1}

	summary, err := l.Load(context.Background(), makeRecords(20), nil)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil (1/20 = 5%% is below the 10%% tolerance)", err)
	}
	if summary.BatchesFailed != 1 {
		t.Errorf("BatchesFailed = %d, want 1", summary.BatchesFailed)
	}
}

func TestLoad_AboveFailureToleranceFailsStage(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{failBatches: map[int]bool{0: true, 1: true, 2: true}}
	l := &load.Loader{Store: fs, BatchSize: 1}

	_, err := l.Load(context.Background(), makeRecords(10), nil)

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.LoadConflict {
		t.Fatalf("expected LoadConflict (3/10 = 30%% exceeds 10%% tolerance), got %v", err)
	}
}

func TestLoad_MarkProcessedFailureIsWarningNotError(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{failBatches: map[int]bool{}, markProcessedErr: errors.New("db unavailable")}
	l := &load.Loader{Store: fs, BatchSize: 10}

	summary, err := l.Load(context.Background(), makeRecords(3), []string{"blob-a"})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil: records are safely stored even if mark-processed fails", err)
	}
	if summary.MarkProcessedWarning == "" {
		t.Error("expected a MarkProcessedWarning")
	}
}

func TestLoad_CancellationAtBatchBoundary(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{failBatches: map[int]bool{}}
	l := &load.Loader{Store: fs, BatchSize: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, makeRecords(5), nil)

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.Cancelled {
		t.Fatalf("expected Cancelled, got %v", err)
	}
}

func TestLoad_CancellationMidRunMarksWhollyCommittedBlobsProcessed(t *testing.T) {
	t.Parallel()

	records := append(makeRecordsForBlob(2, "blob-done"), makeRecordsForBlob(2, "blob-partial")...)
	fs := &fakeStore{failBatches: map[int]bool{}, cancelAfterCalls: 2}
	l := &load.Loader{Store: fs, BatchSize: 1}

	ctx, cancel := context.WithCancel(context.Background())
	fs.cancelFunc = cancel
	defer cancel()

	summary, err := l.Load(ctx, records, []string{"blob-done", "blob-partial"})

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.Cancelled {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if summary.BatchesTotal != 2 {
		t.Errorf("BatchesTotal = %d, want 2 (two batches ran before cancellation landed)", summary.BatchesTotal)
	}
	if len(fs.markedProcessed) != 1 || fs.markedProcessed[0] != "blob-done" {
		t.Errorf("markedProcessed = %v, want exactly [blob-done] (blob-partial's second batch never ran)", fs.markedProcessed)
	}
}
