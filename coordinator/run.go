package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/extract"
	"github.com/rshade/billingfocus/focus"
	"github.com/rshade/billingfocus/focus/validate"
	"github.com/rshade/billingfocus/load"
	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/obslog"
	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/source"
)

// runOne drives one PipelineRun end to end: resolve -> extract ->
// transform -> validate -> load, persisting the run's state at every
// transition so a crash mid-run leaves a reconstructable picture, per
// spec.md §4.8.
func (c *Coordinator) runOne(ctx context.Context, providerID string, windowStart, windowEnd time.Time, runType coordinatortypes.RunType) (*coordinatortypes.PipelineRun, error) {
	provider, err := c.Store.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, pipelineerr.New(pipelineerr.ProviderNotFound, "coordinator", fmt.Sprintf("provider %q not found", providerID))
	}
	if !provider.Enabled {
		return nil, pipelineerr.New(pipelineerr.ConfigInvalid, "coordinator", fmt.Sprintf("provider %q is not enabled", providerID))
	}

	runID, err := newRunID()
	if err != nil {
		return nil, err
	}
	run := coordinatortypes.PipelineRun{
		ID:          runID,
		ProviderID:  providerID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		RunType:     runType,
		Status:      coordinatortypes.RunStatusPending,
		StartedAt:   c.now(),
	}
	if err := c.Store.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.register(run.ID, cancel)
	defer func() {
		cancel()
		c.unregister(run.ID)
	}()

	c.Metrics.RunsInFlight.Inc()
	defer c.Metrics.RunsInFlight.Dec()

	run.Status = coordinatortypes.RunStatusRunning
	if err := c.Store.UpdateRun(runCtx, run); err != nil {
		c.Logger.Warn().Err(err).Str(obslog.FieldRunID, run.ID).Msg("failed to persist running transition")
	}

	finalStatus, errMessage, counters := c.execute(runCtx, provider, run)

	run.Status = finalStatus
	run.CompletedAt = c.now()
	run.Counters = counters
	run.ErrorMessage = errMessage
	if err := c.Store.UpdateRun(ctx, run); err != nil {
		return &run, err
	}
	return &run, nil
}

// execute runs the Extract -> Transform -> Validate -> Load DAG and
// returns the run's terminal status, error message (if any), and final
// counters. It never returns an error itself: every failure is folded
// into the returned status so runOne can always persist a terminal
// PipelineRun.
func (c *Coordinator) execute(ctx context.Context, provider *coordinatortypes.Provider, run coordinatortypes.PipelineRun) (coordinatortypes.RunStatus, string, coordinatortypes.Counters) {
	var counters coordinatortypes.Counters

	cfg, err := c.resolveProviderAndAuth(provider)
	if err != nil {
		return coordinatortypes.RunStatusFailed, err.Error(), counters
	}
	if err := c.Registry.ValidateConfig(provider.TypeTag, provider.Config); err != nil {
		return coordinatortypes.RunStatusFailed, err.Error(), counters
	}

	extractor, err := c.Registry.NewExtractor(provider.TypeTag, cfg)
	if err != nil {
		return coordinatortypes.RunStatusFailed, err.Error(), counters
	}
	mapper, err := c.Registry.NewMapper(provider.TypeTag, cfg)
	if err != nil {
		return coordinatortypes.RunStatusFailed, err.Error(), counters
	}
	src, err := c.Registry.NewSource(provider.TypeTag, cfg)
	if err != nil {
		return coordinatortypes.RunStatusFailed, err.Error(), counters
	}

	window := source.Window{Start: run.WindowStart, End: run.WindowEnd}
	descriptors, err := src.Descriptors(ctx, window)
	if err != nil {
		return coordinatortypes.RunStatusFailed, err.Error(), counters
	}

	if err := ctxErr(ctx); err != nil {
		return coordinatortypes.RunStatusCancelled, err.Error(), counters
	}

	extractStart := time.Now()
	results := extract.Run(ctx, extractor, c.Store, provider.ID, descriptors, window, c.workerCount())
	c.Metrics.ObserveStage(provider.TypeTag, "extract", time.Since(extractStart).Seconds())

	if stageFailed, ratio := extract.Stage(results); stageFailed {
		c.Logger.Error().Str("provider", provider.ID).Float64("failure_ratio", ratio).Msg("extract stage failed")
		return coordinatortypes.RunStatusFailed, fmt.Sprintf("extract stage exceeded failure tolerance (%.0f%%)", ratio*100), counters
	}

	for _, r := range results {
		counters.Extracted += len(r.Batch.Records)
	}
	c.Metrics.AddRecords(provider.TypeTag, "extract", "success", counters.Extracted)

	if err := ctxErr(ctx); err != nil {
		return coordinatortypes.RunStatusCancelled, err.Error(), counters
	}

	records, rawBlobIDs, transformed := c.transform(provider, mapper, results, &counters)
	c.Metrics.AddRecords(provider.TypeTag, "transform", "success", transformed)

	if err := ctxErr(ctx); err != nil {
		return coordinatortypes.RunStatusCancelled, err.Error(), counters
	}

	valid := c.validateRecords(provider, records, &counters)

	if err := ctxErr(ctx); err != nil {
		return coordinatortypes.RunStatusCancelled, err.Error(), counters
	}

	loadStart := time.Now()
	loader := load.New(c.Store)
	summary, err := loader.Load(ctx, valid, rawBlobIDs)
	c.Metrics.ObserveStage(provider.TypeTag, "load", time.Since(loadStart).Seconds())
	counters.Loaded += summary.RecordsLoaded
	counters.Failed += summary.RecordsFailed
	c.Metrics.AddRecords(provider.TypeTag, "load", "success", summary.RecordsLoaded)
	c.Metrics.AddRecords(provider.TypeTag, "load", "failed", summary.RecordsFailed)
	if err != nil {
		if kind, ok := stageKind(err); ok && kind == pipelineerr.Cancelled {
			return coordinatortypes.RunStatusCancelled, err.Error(), counters
		}
		return coordinatortypes.RunStatusFailed, err.Error(), counters
	}
	if summary.MarkProcessedWarning != "" {
		c.Logger.Warn().Str("provider", provider.ID).Msg(summary.MarkProcessedWarning)
	}

	return coordinatortypes.RunStatusCompleted, "", counters
}

// transform runs the mapping workflow over every raw record in every
// successful extract result, returning the focus records produced and
// the set of RawBlob ids that fed them (used by the Loader's
// mark-processed pass).
func (c *Coordinator) transform(provider *coordinatortypes.Provider, m mapping.Mapper, results []extract.SourceResult, counters *coordinatortypes.Counters) ([]focus.Record, []string, int) {
	var records []focus.Record
	var rawBlobIDs []string

	opts := mapping.Options{
		ProviderID: provider.ID,
		Now:        c.now,
	}

	for _, result := range results {
		if result.Err != nil || len(result.Batch.Records) == 0 {
			continue
		}
		opts.RawBillingDataID = result.RawBlobID
		if result.RawBlobID != "" {
			rawBlobIDs = append(rawBlobIDs, result.RawBlobID)
		}

		for _, raw := range result.Batch.Records {
			mapped, err := mapping.Run(m, raw, opts)
			if err != nil {
				counters.Failed++
				c.Logger.Warn().Str("provider", provider.ID).Err(err).Msg("mapping failed for record")
				continue
			}
			for _, res := range mapped {
				for _, w := range res.Warnings {
					c.Logger.Debug().Str("provider", provider.ID).Str("field", w.Field).Msg(w.Message)
				}
				records = append(records, res.Record)
			}
		}
	}

	return records, rawBlobIDs, len(records)
}

// validateRecords runs the FOCUS validator over records and drops any
// that fail with hard errors, per spec.md's "Validator filters/annotates".
func (c *Coordinator) validateRecords(provider *coordinatortypes.Provider, records []focus.Record, counters *coordinatortypes.Counters) []focus.Record {
	v := validate.New(false)
	v.Now = c.now

	valid := make([]focus.Record, 0, len(records))
	for _, rec := range records {
		result := v.ValidateRecord(rec)
		if !result.IsValid() {
			counters.Failed++
			c.Logger.Debug().Str("provider", provider.ID).Int("errors", len(result.Errors)).Msg("record failed validation")
			continue
		}
		valid = append(valid, rec)
	}
	return valid
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return pipelineerr.Wrap(pipelineerr.Cancelled, "coordinator", "cancelled at stage boundary", ctx.Err())
	default:
		return nil
	}
}

func stageKind(err error) (pipelineerr.Kind, bool) {
	pe, ok := err.(*pipelineerr.Error)
	if !ok {
		return "", false
	}
	return pe.Kind, true
}
