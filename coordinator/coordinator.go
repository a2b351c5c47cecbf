// Package coordinator implements the Run Coordinator (C8): it resolves
// a Provider, drives the Extract -> Transform -> Validate -> Load DAG
// described in spec.md §4.8, persists PipelineRun state transitions as
// they happen, and exposes the Trigger/Cancel/Retry/Status/Stats
// surface spec.md §6 names as the "Run trigger surface" collaborator
// interface.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/encryptor"
	"github.com/rshade/billingfocus/obslog"
	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/store"
)

// DefaultWorkerCount bounds concurrent source extraction and batch
// loading within a single run, per spec.md §5.
const DefaultWorkerCount = 4

// Coordinator is the process-wide run orchestrator. The zero value is
// not usable; use New.
type Coordinator struct {
	Registry    *registry.Registry
	Store       store.Store
	Encryptor   *encryptor.Encryptor
	WorkerCount int
	// DefaultWindowDays overrides resolveWindow's package-level
	// DefaultWindowDays fallback when a trigger request leaves both
	// Start and DaysBack unset. Zero means use the package default.
	DefaultWindowDays int
	Logger            zerolog.Logger
	Metrics           *obslog.Metrics
	// Now is injectable for deterministic tests; defaults to time.Now.
	Now func() time.Time

	mu        sync.Mutex
	cancelers map[string]context.CancelFunc
}

// New constructs a Coordinator. enc may be nil when no provider in reg
// carries encrypted auth fields (e.g. in tests).
func New(reg *registry.Registry, st store.Store, enc *encryptor.Encryptor) *Coordinator {
	return &Coordinator{
		Registry:    reg,
		Store:       st,
		Encryptor:   enc,
		WorkerCount: DefaultWorkerCount,
		Logger:      obslog.NewLogger("coordinator", zerolog.InfoLevel, nil),
		Metrics:     obslog.NewMetrics(),
		cancelers:   make(map[string]context.CancelFunc),
	}
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Coordinator) workerCount() int {
	if c.WorkerCount > 0 {
		return c.WorkerCount
	}
	return DefaultWorkerCount
}

func (c *Coordinator) defaultWindowDays() int {
	if c.DefaultWindowDays > 0 {
		return c.DefaultWindowDays
	}
	return DefaultWindowDays
}

// TriggerRequest starts one run per ProviderID. ProviderIDs must be
// non-empty: this module's Store port (spec.md §6) exposes no provider
// enumeration, so "trigger every configured provider" (spec.md §6's
// bare `provider_id?`) is expressed here as an explicit list rather
// than an implicit "all" — see DESIGN.md's Open Question decision.
type TriggerRequest struct {
	ProviderIDs []string
	Window      WindowRequest
	RunType     coordinatortypes.RunType
}

// TriggerResult reports one run id per provider that started
// successfully, and one error per provider that failed before or
// during its run.
type TriggerResult struct {
	RunIDs []string
	Errors map[string]string
}

// Trigger starts a run for each requested provider concurrently,
// bounded by WorkerCount, matching spec.md §5's "coordinator runs
// multiple provider syncs in parallel".
func (c *Coordinator) Trigger(ctx context.Context, req TriggerRequest) (TriggerResult, error) {
	if len(req.ProviderIDs) == 0 {
		return TriggerResult{}, pipelineerr.New(pipelineerr.ConfigInvalid, "coordinator", "at least one provider id is required")
	}

	runType := req.RunType
	if runType == "" {
		runType = coordinatortypes.RunTypeManual
	}
	start, end := resolveWindow(req.Window, c.now, c.defaultWindowDays())

	type outcome struct {
		providerID string
		runID      string
		err        error
	}
	outcomes := make(chan outcome, len(req.ProviderIDs))

	// A plain (non-WithContext) errgroup bounds concurrency without
	// cancelling siblings on a provider's failure: one provider failing
	// must not abort the others' runs.
	var g errgroup.Group
	g.SetLimit(c.workerCount())

	for _, providerID := range req.ProviderIDs {
		providerID := providerID
		g.Go(func() error {
			run, err := c.runOne(ctx, providerID, start, end, runType)
			if err != nil {
				outcomes <- outcome{providerID: providerID, err: err}
				return nil
			}
			outcomes <- outcome{providerID: providerID, runID: run.ID}
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)

	result := TriggerResult{Errors: make(map[string]string)}
	for o := range outcomes {
		if o.err != nil {
			result.Errors[o.providerID] = o.err.Error()
			continue
		}
		result.RunIDs = append(result.RunIDs, o.runID)
	}
	return result, nil
}

// Cancel marks runID for cooperative cancellation. It is a no-op,
// returning nil, if the run is not currently executing in this process
// (already terminal, or owned by a different process) — spec.md §4.8
// allows cancelling only pending/running runs, and a run already past
// that point has nothing left to cancel.
func (c *Coordinator) Cancel(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.cancelers[runID]; ok {
		cancel()
	}
}

// Retry re-triggers runID's provider and window as a new run with
// RunType retry, per spec.md §4.8 ("retry creates a new Run linked to
// the original"). It fails with ConfigInvalid if the original run is
// not in a terminal state.
func (c *Coordinator) Retry(ctx context.Context, runID string) (*coordinatortypes.PipelineRun, error) {
	original, err := c.Store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, pipelineerr.New(pipelineerr.ProviderNotFound, "coordinator", fmt.Sprintf("run %q not found", runID))
	}
	if !original.Status.IsTerminal() {
		return nil, pipelineerr.New(pipelineerr.ConfigInvalid, "coordinator", fmt.Sprintf("run %q is not terminal", runID))
	}

	run, err := c.runOne(ctx, original.ProviderID, original.WindowStart, original.WindowEnd, coordinatortypes.RunTypeRetry)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Status lists the most recent runs for providerID.
func (c *Coordinator) Status(ctx context.Context, providerID string, limit int) ([]coordinatortypes.PipelineRun, error) {
	return c.Store.ListRuns(ctx, providerID, limit)
}

// Stats summarizes providerID's runs over the trailing days window
// (zero-guarded: a provider with no runs in range reports zeroed
// rates rather than dividing by zero).
type Stats struct {
	TotalRuns     int
	CompletedRuns int
	FailedRuns    int
	CancelledRuns int
	SuccessRate   float64
	RecordsLoaded int
	RecordsFailed int
}

func (c *Coordinator) Stats(ctx context.Context, providerID string, days int) (Stats, error) {
	runs, err := c.Store.ListRuns(ctx, providerID, 0)
	if err != nil {
		return Stats{}, err
	}

	cutoff := c.now().AddDate(0, 0, -days)
	var stats Stats
	for _, run := range runs {
		if run.StartedAt.Before(cutoff) {
			continue
		}
		stats.TotalRuns++
		switch run.Status {
		case coordinatortypes.RunStatusCompleted:
			stats.CompletedRuns++
		case coordinatortypes.RunStatusFailed:
			stats.FailedRuns++
		case coordinatortypes.RunStatusCancelled:
			stats.CancelledRuns++
		}
		stats.RecordsLoaded += run.Counters.Loaded
		stats.RecordsFailed += run.Counters.Failed
	}
	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.CompletedRuns) / float64(stats.TotalRuns)
	}
	return stats, nil
}

// HealthStatus is a minimal health report. Full gRPC health protocol
// wire-up is dropped — see DESIGN.md — in favor of this plain method,
// which cmd/billingfocusd can expose over HTTP.
type HealthStatus struct {
	Healthy      bool
	RunsInFlight int
}

// Health reports whether the coordinator has any run in flight and is
// otherwise reachable.
func (c *Coordinator) Health() HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return HealthStatus{Healthy: true, RunsInFlight: len(c.cancelers)}
}

func (c *Coordinator) register(runID string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelers[runID] = cancel
}

func (c *Coordinator) unregister(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancelers, runID)
}

func (c *Coordinator) resolveProviderAndAuth(provider *coordinatortypes.Provider) (map[string]any, error) {
	metadata, err := c.Registry.GetMetadata(provider.TypeTag)
	if err != nil {
		return nil, err
	}
	decrypted := decryptConfig(provider.AuthConfig, c.Encryptor)
	resolved, err := auth.Resolve(decrypted, metadata.SupportedMethods)
	if err != nil {
		return nil, err
	}
	return buildProviderConfig(provider.Config, resolved), nil
}
