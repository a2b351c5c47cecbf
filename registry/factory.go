package registry

import (
	"context"

	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/source"
)

// RawBatch is the payload one extractor invocation over one source
// descriptor produced: the raw records plus the metadata needed to
// write a RawBlob before any normalization happens.
type RawBatch struct {
	SourceName string
	Records    []map[string]any
	// Metadata carries implementation-specific provenance (request id,
	// file paths read, row counts) for the RawBlob's audit trail.
	Metadata map[string]any
}

// Extractor pulls raw records for one source descriptor and window. A
// zero-record extraction (empty Records) is a valid, successful
// outcome.
type Extractor interface {
	Extract(ctx context.Context, spec source.Descriptor, window source.Window) (RawBatch, error)
}

// Source produces the ordered sequence of source descriptors for a
// window, given the provider's raw configuration.
type Source interface {
	Descriptors(ctx context.Context, window source.Window) ([]source.Descriptor, error)
}

// ExtractorFactory builds a provider's Extractor from its resolved
// configuration.
type ExtractorFactory func(cfg map[string]any) (Extractor, error)

// MapperFactory builds a provider's mapping.Mapper from its resolved
// configuration.
type MapperFactory func(cfg map[string]any) (mapping.Mapper, error)

// SourceFactory builds a provider's Source from its resolved
// configuration.
type SourceFactory func(cfg map[string]any) (Source, error)

// entry is the bound tuple one Register call installs.
type entry struct {
	metadata  Metadata
	extractor ExtractorFactory
	mapper    MapperFactory
	source    SourceFactory
}
