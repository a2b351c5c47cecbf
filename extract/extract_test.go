package extract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/extract"
	"github.com/rshade/billingfocus/focus"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
	"github.com/rshade/billingfocus/store"
)

type fakeExtractor struct {
	batches map[string]registry.RawBatch
	errs    map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, spec source.Descriptor, _ source.Window) (registry.RawBatch, error) {
	if err, ok := f.errs[spec.Name]; ok {
		return registry.RawBatch{}, err
	}
	return f.batches[spec.Name], nil
}

type fakeBlobStore struct {
	saved []store.RawBlob
}

func (f *fakeBlobStore) SaveRawBlob(_ context.Context, blob store.RawBlob) (string, error) {
	f.saved = append(f.saved, blob)
	return "blob-1", nil
}
func (f *fakeBlobStore) MarkProcessed(context.Context, []string, time.Time) (int, error) { return 0, nil }
func (f *fakeBlobStore) UnprocessedBlobIDs(context.Context, string, int) ([]string, error) {
	return nil, nil
}
func (f *fakeBlobStore) UpsertFocus(context.Context, []focus.Record) (store.UpsertResult, error) {
	return store.UpsertResult{}, nil
}
func (f *fakeBlobStore) GetProvider(context.Context, string) (*coordinatortypes.Provider, error) {
	return nil, nil
}
func (f *fakeBlobStore) SaveRun(context.Context, coordinatortypes.PipelineRun) error   { return nil }
func (f *fakeBlobStore) UpdateRun(context.Context, coordinatortypes.PipelineRun) error { return nil }
func (f *fakeBlobStore) GetRun(context.Context, string) (*coordinatortypes.PipelineRun, error) {
	return nil, nil
}
func (f *fakeBlobStore) ListRuns(context.Context, string, int) ([]coordinatortypes.PipelineRun, error) {
	return nil, nil
}

func descriptors(names ...string) []source.Descriptor {
	out := make([]source.Descriptor, len(names))
	for i, n := range names {
		out[i] = source.Descriptor{Name: n, SourceType: source.TypeRestApi, Config: map[string]any{"x": 1}}
	}
	return out
}

func TestRun_WritesRawBlobForNonEmptyBatch(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{batches: map[string]registry.RawBatch{
		"usage": {SourceName: "usage", Records: []map[string]any{{"a": 1}}},
	}}
	blobs := &fakeBlobStore{}

	results := extract.Run(context.Background(), ext, blobs, "prov-1", descriptors("usage"), source.Window{}, 2)

	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	if results[0].RawBlobID == "" {
		t.Error("expected a RawBlobID for a non-empty batch")
	}
	if len(blobs.saved) != 1 {
		t.Fatalf("expected 1 saved blob, got %d", len(blobs.saved))
	}
}

func TestRun_ZeroRecordBatchWritesNoBlob(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{batches: map[string]registry.RawBatch{"empty": {SourceName: "empty"}}}
	blobs := &fakeBlobStore{}

	results := extract.Run(context.Background(), ext, blobs, "prov-1", descriptors("empty"), source.Window{}, 1)

	if results[0].Err != nil {
		t.Fatalf("zero-record extraction should be a valid success, got %v", results[0].Err)
	}
	if len(blobs.saved) != 0 {
		t.Error("expected no blob written for a zero-record batch")
	}
}

func TestStage_BelowTolerancePasses(t *testing.T) {
	t.Parallel()

	results := []extract.SourceResult{{}, {}, {}, {}, {}, {}, {Err: errors.New("boom")}}
	failed, ratio := extract.Stage(results)
	if failed {
		t.Errorf("1/7 = 14%% should not fail (<= 30%%), got failed=true ratio=%v", ratio)
	}
}

func TestStage_AboveToleranceFails(t *testing.T) {
	t.Parallel()

	results := []extract.SourceResult{
		{Err: errors.New("a")}, {Err: errors.New("b")}, {}, {}, {},
	}
	failed, ratio := extract.Stage(results)
	if !failed {
		t.Errorf("2/5 = 40%% exceeds 30%% tolerance, got failed=false ratio=%v", ratio)
	}
}

func TestStage_EmptyResultsNeverFail(t *testing.T) {
	t.Parallel()

	failed, ratio := extract.Stage(nil)
	if failed || ratio != 0 {
		t.Errorf("empty results should never fail the stage, got failed=%v ratio=%v", failed, ratio)
	}
}
