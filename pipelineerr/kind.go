// Package pipelineerr defines the error-kind taxonomy shared by every
// pipeline stage (registry, auth, extract, mapping, validate, load,
// coordinator). A component wraps its own sentinel errors in an *Error
// carrying a Kind so the coordinator can decide stage-fatal vs
// stage-tolerable without parsing error strings.
package pipelineerr

// Kind classifies why an operation failed, independent of which
// component raised it.
type Kind string

const (
	ConfigInvalid         Kind = "ConfigInvalid"
	UnsupportedAuthMethod Kind = "UnsupportedAuthMethod"
	MissingAuthField      Kind = "MissingAuthField"
	ProviderNotFound      Kind = "ProviderNotFound"
	SourceTransient       Kind = "SourceTransient"
	SourceFailed          Kind = "SourceFailed"
	RecordInvalid         Kind = "RecordInvalid"
	LoadConflict          Kind = "LoadConflict"
	Cancelled             Kind = "Cancelled"
	InternalBug           Kind = "InternalBug"
)

//nolint:gochecknoglobals // zero-allocation validation table
var allKinds = []Kind{
	ConfigInvalid, UnsupportedAuthMethod, MissingAuthField, ProviderNotFound,
	SourceTransient, SourceFailed, RecordInvalid, LoadConflict, Cancelled, InternalBug,
}

// IsValidKind reports whether k is one of the defined error kinds.
func IsValidKind(k Kind) bool {
	for _, v := range allKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Retryable reports whether the coordinator's local-recovery policy
// should retry an operation that failed with this kind. SourceTransient
// is the only kind retried automatically; everything else is either
// terminal (Cancelled, ConfigInvalid, ...) or already resolved by a
// component-local retry before it reaches this classification
// (LoadConflict's single retry happens inside the loader).
func (k Kind) Retryable() bool {
	return k == SourceTransient
}

// StageFatal reports whether an error of this kind should transition
// the owning pipeline run to failed, as opposed to being counted and
// tolerated within a failure-ratio bound.
func (k Kind) StageFatal() bool {
	switch k {
	case Cancelled, InternalBug, ConfigInvalid, UnsupportedAuthMethod, MissingAuthField, ProviderNotFound:
		return true
	case SourceTransient, SourceFailed, RecordInvalid, LoadConflict:
		return false
	default:
		return true
	}
}
