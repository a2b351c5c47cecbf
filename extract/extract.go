// Package extract implements the per-source-type extractors (C4): one
// extractor per source.Type, each responsible for writing a RawBlob
// for the full payload it produced before returning. A zero-record
// extraction is a valid, successful outcome.
package extract

import (
	"context"
	"time"

	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
	"github.com/rshade/billingfocus/store"
)

// DefaultRequestTimeout is the per-request bound for a RestApi
// extractor call, per spec.md §5.
const DefaultRequestTimeout = 30 * time.Second

// MaxSourceFailureRatio is the fraction of per-source failures within a
// run's Extract stage that is tolerated before the stage itself fails.
const MaxSourceFailureRatio = 0.30

// SourceResult is one source descriptor's extraction outcome.
type SourceResult struct {
	SourceName string
	Batch      registry.RawBatch
	RawBlobID  string
	Err        error
}

// Run extracts every descriptor concurrently (bounded by concurrency)
// using extractor, writing a RawBlob per successful, non-empty batch to
// blobs. It tolerates up to MaxSourceFailureRatio of per-source
// failures; see Stage for the caller-facing pass/fail decision.
func Run(ctx context.Context, extractor registry.Extractor, blobs store.Store, providerID string, descriptors []source.Descriptor, window source.Window, concurrency int) []SourceResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]SourceResult, len(descriptors))
	sem := make(chan struct{}, concurrency)
	done := make(chan int, len(descriptors))

	for i, spec := range descriptors {
		i, spec := i, spec
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- i }()
			results[i] = extractOne(ctx, extractor, blobs, providerID, spec, window)
		}()
	}
	for range descriptors {
		<-done
	}

	return results
}

func extractOne(ctx context.Context, extractor registry.Extractor, blobs store.Store, providerID string, spec source.Descriptor, window source.Window) SourceResult {
	batch, err := extractor.Extract(ctx, spec, window)
	if err != nil {
		return SourceResult{SourceName: spec.Name, Err: err}
	}
	if len(batch.Records) == 0 {
		// A zero-record extraction is a valid outcome; no RawBlob is written.
		return SourceResult{SourceName: spec.Name, Batch: batch}
	}

	payload, err := encodeBatch(batch)
	if err != nil {
		return SourceResult{SourceName: spec.Name, Err: err}
	}

	id, err := blobs.SaveRawBlob(ctx, store.RawBlob{
		ProviderID: providerID,
		SourceName: spec.Name,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return SourceResult{SourceName: spec.Name, Err: err}
	}

	return SourceResult{SourceName: spec.Name, Batch: batch, RawBlobID: id}
}

// Stage summarizes per-source results into the coordinator's
// stage-fatal decision: the Extract stage fails only once the fraction
// of failed sources exceeds MaxSourceFailureRatio.
func Stage(results []SourceResult) (failed bool, failureRatio float64) {
	if len(results) == 0 {
		return false, 0
	}
	var failures int
	for _, r := range results {
		if r.Err != nil {
			failures++
		}
	}
	failureRatio = float64(failures) / float64(len(results))
	return failureRatio > MaxSourceFailureRatio, failureRatio
}
