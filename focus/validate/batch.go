package validate

import "github.com/rshade/billingfocus/focus"

// MaxDetailEntries bounds how many per-record Results BatchSummary
// includes verbatim.
const MaxDetailEntries = 10

// BatchResult is the compliance summary over a batch of records.
type BatchResult struct {
	Total          int
	Valid          int
	TotalErrors    int
	TotalWarnings  int
	ComplianceRate float64 // Valid / Total, 0 when Total == 0
	Details        []Result
}

// ValidateBatch validates every record and returns the batch summary.
// ComplianceRate is zero-guarded: an empty batch reports rate 0, not
// NaN or a divide-by-zero panic, per the spec's "zero-guarded rates
// everywhere" decision on the source's statistics endpoints.
func (v *Validator) ValidateBatch(records []focus.Record) BatchResult {
	var batch BatchResult
	batch.Total = len(records)

	for _, rec := range records {
		result := v.ValidateRecord(rec)
		if result.IsValid() {
			batch.Valid++
		}
		batch.TotalErrors += len(result.Errors)
		batch.TotalWarnings += len(result.Warnings)

		if len(batch.Details) < MaxDetailEntries {
			batch.Details = append(batch.Details, result)
		}
	}

	if batch.Total > 0 {
		batch.ComplianceRate = float64(batch.Valid) / float64(batch.Total)
	}

	return batch
}
