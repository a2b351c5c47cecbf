// Package source defines the descriptor types an extractor consumes: a
// Descriptor is a fully self-validating spec for where to pull raw
// billing data from, for a single [start,end) window. It is pure data —
// producing a stream of descriptors for a window is the provider's
// extractor-factory responsibility (package registry), not this
// package's.
package source

import (
	"fmt"
	"time"
)

// Type is the source descriptor variant.
type Type string

const (
	TypeRestApi      Type = "rest_api"
	TypeFilesystem   Type = "filesystem"
	TypeSqlDatabase  Type = "sql_database"
)

//nolint:gochecknoglobals // zero-allocation validation table
var allTypes = []Type{TypeRestApi, TypeFilesystem, TypeSqlDatabase}

// IsValidType reports whether t is a recognized source descriptor type.
func IsValidType(t Type) bool {
	for _, v := range allTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Descriptor is the common envelope every variant embeds. Name must be
// non-empty and SourceType must be recognized; Config carries the
// variant-specific fields as a loosely typed bag so new variants do not
// require changes to callers that only route on Type.
type Descriptor struct {
	Name       string
	SourceType Type
	Config     map[string]any
}

// Validate checks the invariants every descriptor must satisfy
// regardless of variant: non-empty name, recognized source type,
// non-empty config.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("source: descriptor name is required")
	}
	if !IsValidType(d.SourceType) {
		return fmt.Errorf("source: unrecognized source_type %q", d.SourceType)
	}
	if len(d.Config) == 0 {
		return fmt.Errorf("source: descriptor %q: config is required", d.Name)
	}
	return nil
}
