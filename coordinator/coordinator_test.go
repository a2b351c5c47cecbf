package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/coordinator"
	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/focus"
	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
	"github.com/rshade/billingfocus/store"
)

// fakeStore is an in-memory store.Store covering the subset of
// behavior the coordinator exercises: provider lookup, run
// bookkeeping, raw blob writes, and focus record upsert.
type fakeStore struct {
	mu        sync.Mutex
	providers map[string]*coordinatortypes.Provider
	runs      map[string]coordinatortypes.PipelineRun
	runOrder  []string
	blobs     map[string]store.RawBlob
	upserted  []focus.Record

	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		providers: make(map[string]*coordinatortypes.Provider),
		runs:      make(map[string]coordinatortypes.PipelineRun),
		blobs:     make(map[string]store.RawBlob),
	}
}

func (f *fakeStore) SaveRawBlob(_ context.Context, blob store.RawBlob) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := blob.SourceName + "-blob"
	blob.ID = id
	f.blobs[id] = blob
	return id, nil
}

func (f *fakeStore) MarkProcessed(_ context.Context, ids []string, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if b, ok := f.blobs[id]; ok {
			b.Processed = true
			f.blobs[id] = b
		}
	}
	return len(ids), nil
}

func (f *fakeStore) UnprocessedBlobIDs(_ context.Context, _ string, _ int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, b := range f.blobs {
		if !b.Processed {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) UpsertFocus(_ context.Context, records []focus.Record) (store.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return store.UpsertResult{}, f.upsertErr
	}
	f.upserted = append(f.upserted, records...)
	return store.UpsertResult{Inserted: len(records)}, nil
}

func (f *fakeStore) GetProvider(_ context.Context, id string) (*coordinatortypes.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.providers[id], nil
}

func (f *fakeStore) SaveRun(_ context.Context, run coordinatortypes.PipelineRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	f.runOrder = append(f.runOrder, run.ID)
	return nil
}

func (f *fakeStore) UpdateRun(_ context.Context, run coordinatortypes.PipelineRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, id string) (*coordinatortypes.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (f *fakeStore) ListRuns(_ context.Context, providerID string, limit int) ([]coordinatortypes.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []coordinatortypes.PipelineRun
	for _, id := range f.runOrder {
		run := f.runs[id]
		if run.ProviderID == providerID {
			out = append(out, run)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// staticMapper turns every raw record with an "amount" key into one
// FOCUS record; used to exercise the coordinator's transform stage
// without depending on a real provider package.
type staticMapper struct{}

func (staticMapper) IsValidRecord(raw map[string]any) bool { _, ok := raw["amount"]; return ok }
func (staticMapper) SplitRecord(raw map[string]any) []map[string]any {
	return mapping.DefaultSplit(raw)
}

func (staticMapper) Costs(raw map[string]any) (mapping.CostInfo, error) {
	amount, _ := raw["amount"].(float64)
	return mapping.CostInfo{BilledCost: amount, EffectiveCost: amount, ListCost: amount}, nil
}

func (staticMapper) Account(map[string]any) (mapping.AccountInfo, error) {
	return mapping.AccountInfo{BillingAccountID: "acct-1", BillingAccountName: "Acme", BillingAccountType: "standard"}, nil
}

func (staticMapper) TimePeriod(map[string]any) (mapping.TimeInfo, error) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return mapping.TimeInfo{ChargePeriodStart: now, ChargePeriodEnd: now.AddDate(0, 0, 1)}, nil
}

func (staticMapper) Service(map[string]any) (mapping.ServiceInfo, error) {
	return mapping.ServiceInfo{
		ServiceName: "Compute Engine", ServiceCategory: "Compute",
		ProviderName: "Test", PublisherName: "Test", InvoiceIssuerName: "Test",
	}, nil
}

func (staticMapper) Charge(map[string]any) (mapping.ChargeInfo, error) {
	return mapping.ChargeInfo{ChargeCategory: "Usage", ChargeDescription: "test usage"}, nil
}

func (staticMapper) SurrogateID(raw map[string]any) (string, error) {
	id, _ := raw["id"].(string)
	return id, nil
}

type staticSource struct{ records []map[string]any }

func (s staticSource) Descriptors(_ context.Context, _ source.Window) ([]source.Descriptor, error) {
	return []source.Descriptor{{Name: "static", SourceType: source.TypeFilesystem, Config: map[string]any{"url": "file:///tmp"}}}, nil
}

type staticExtractor struct{ records []map[string]any }

func (s staticExtractor) Extract(_ context.Context, _ source.Descriptor, _ source.Window) (registry.RawBatch, error) {
	return registry.RawBatch{SourceName: "static", Records: s.records}, nil
}

const testTag = "static"

func registerStatic(reg *registry.Registry, records []map[string]any, extractErr error) {
	registerStaticWithSchema(reg, records, extractErr, "")
}

func registerStaticWithSchema(reg *registry.Registry, records []map[string]any, extractErr error, schema string) {
	reg.Register(testTag, registry.Metadata{
		Tag:              testTag,
		DisplayName:      "Static",
		SupportedMethods: auth.SupportedMethods{auth.MethodAPIKey},
		DefaultMethod:    auth.MethodAPIKey,
		ConfigSchema:     schema,
	},
		func(map[string]any) (registry.Extractor, error) {
			if extractErr != nil {
				return nil, extractErr
			}
			return staticExtractor{records: records}, nil
		},
		func(map[string]any) (mapping.Mapper, error) { return staticMapper{}, nil },
		func(map[string]any) (registry.Source, error) { return staticSource{records: records}, nil },
	)
}

func testProvider(id string) *coordinatortypes.Provider {
	return &coordinatortypes.Provider{
		ID:         id,
		TypeTag:    testTag,
		Name:       "test provider",
		Enabled:    true,
		AuthConfig: map[string]any{"method": "api_key", "key": "sk-test"},
		Config:     map[string]any{},
	}
}

func TestTrigger_HappyPathCompletesRun(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.providers["p1"] = testProvider("p1")
	reg := registry.New(nil)
	registerStatic(reg, []map[string]any{
		{"id": "rec-1", "amount": 10.0},
		{"id": "rec-2", "amount": 20.0},
	}, nil)

	co := coordinator.New(reg, fs, nil)
	result, err := co.Trigger(context.Background(), coordinator.TriggerRequest{ProviderIDs: []string{"p1"}})
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if len(result.RunIDs) != 1 {
		t.Fatalf("RunIDs = %v, want 1 entry", result.RunIDs)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", result.Errors)
	}

	run, err := fs.GetRun(context.Background(), result.RunIDs[0])
	if err != nil || run == nil {
		t.Fatalf("GetRun() = %v, %v", run, err)
	}
	if run.Status != coordinatortypes.RunStatusCompleted {
		t.Errorf("Status = %v, want completed", run.Status)
	}
	if run.Counters.Extracted != 2 {
		t.Errorf("Counters.Extracted = %d, want 2", run.Counters.Extracted)
	}
	if run.Counters.Loaded != 2 {
		t.Errorf("Counters.Loaded = %d, want 2", run.Counters.Loaded)
	}
	if len(fs.upserted) != 2 {
		t.Errorf("upserted = %d records, want 2", len(fs.upserted))
	}
}

func TestTrigger_EmptyWindowProducesZeroRecordsCompletedRun(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.providers["p1"] = testProvider("p1")
	reg := registry.New(nil)
	registerStatic(reg, nil, nil)

	co := coordinator.New(reg, fs, nil)
	result, err := co.Trigger(context.Background(), coordinator.TriggerRequest{ProviderIDs: []string{"p1"}})
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	run, _ := fs.GetRun(context.Background(), result.RunIDs[0])
	if run.Status != coordinatortypes.RunStatusCompleted {
		t.Errorf("Status = %v, want completed", run.Status)
	}
	if run.Counters.Extracted != 0 || run.Counters.Loaded != 0 {
		t.Errorf("Counters = %+v, want all zero", run.Counters)
	}
}

func TestTrigger_UnknownProviderReportsError(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	reg := registry.New(nil)

	co := coordinator.New(reg, fs, nil)
	result, err := co.Trigger(context.Background(), coordinator.TriggerRequest{ProviderIDs: []string{"missing"}})
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if len(result.RunIDs) != 0 {
		t.Errorf("RunIDs = %v, want none", result.RunIDs)
	}
	if _, ok := result.Errors["missing"]; !ok {
		t.Errorf("Errors = %v, want an entry for %q", result.Errors, "missing")
	}
}

func TestTrigger_ExtractorFailureMarksRunFailed(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.providers["p1"] = testProvider("p1")
	reg := registry.New(nil)
	registerStatic(reg, nil, errors.New("no object store opener configured"))

	co := coordinator.New(reg, fs, nil)
	result, err := co.Trigger(context.Background(), coordinator.TriggerRequest{ProviderIDs: []string{"p1"}})
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	run, _ := fs.GetRun(context.Background(), result.RunIDs[0])
	if run.Status != coordinatortypes.RunStatusFailed {
		t.Errorf("Status = %v, want failed", run.Status)
	}
}

func TestTrigger_InvalidProviderConfigMarksRunFailed(t *testing.T) {
	t.Parallel()

	const schema = `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["bucket_name"],
		"properties": {"bucket_name": {"type": "string"}}
	}`
	fs := newFakeStore()
	fs.providers["p1"] = testProvider("p1")
	reg := registry.New(nil)
	registerStaticWithSchema(reg, nil, nil, schema)

	co := coordinator.New(reg, fs, nil)
	result, err := co.Trigger(context.Background(), coordinator.TriggerRequest{ProviderIDs: []string{"p1"}})
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	run, _ := fs.GetRun(context.Background(), result.RunIDs[0])
	if run.Status != coordinatortypes.RunStatusFailed {
		t.Errorf("Status = %v, want failed", run.Status)
	}
	if run.ErrorMessage == "" {
		t.Error("ErrorMessage = \"\", want a config validation message")
	}
}

func TestRetry_RequiresTerminalRun(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.runs["r1"] = coordinatortypes.PipelineRun{ID: "r1", ProviderID: "p1", Status: coordinatortypes.RunStatusRunning}
	reg := registry.New(nil)
	co := coordinator.New(reg, fs, nil)

	if _, err := co.Retry(context.Background(), "r1"); err == nil {
		t.Error("expected Retry to reject a non-terminal run")
	}
}

func TestRetry_CreatesNewRunWithSameWindow(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.providers["p1"] = testProvider("p1")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	fs.runs["r1"] = coordinatortypes.PipelineRun{
		ID: "r1", ProviderID: "p1", WindowStart: start, WindowEnd: end,
		Status: coordinatortypes.RunStatusFailed,
	}
	reg := registry.New(nil)
	registerStatic(reg, nil, nil)
	co := coordinator.New(reg, fs, nil)

	run, err := co.Retry(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if run.RunType != coordinatortypes.RunTypeRetry {
		t.Errorf("RunType = %v, want retry", run.RunType)
	}
	if !run.WindowStart.Equal(start) || !run.WindowEnd.Equal(end) {
		t.Errorf("window = [%v,%v), want [%v,%v)", run.WindowStart, run.WindowEnd, start, end)
	}
}

func TestStats_ZeroGuardedWithNoRuns(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	reg := registry.New(nil)
	co := coordinator.New(reg, fs, nil)

	stats, err := co.Stats(context.Background(), "p1", 30)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.SuccessRate != 0 {
		t.Errorf("SuccessRate = %v, want 0", stats.SuccessRate)
	}
}

func TestCancel_UnknownRunIsANoOp(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	co := coordinator.New(reg, newFakeStore(), nil)
	co.Cancel("never-started")
}

func TestHealth_ReportsNoRunsInFlightWhenIdle(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	co := coordinator.New(reg, newFakeStore(), nil)
	health := co.Health()
	if !health.Healthy || health.RunsInFlight != 0 {
		t.Errorf("Health() = %+v", health)
	}
}
