package registry

import (
	"fmt"
	"sync"

	"github.com/rshade/billingfocus/config"
	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/pipelineerr"
)

// Registry is a process-wide table of provider-type tags to their
// bound factories and metadata. The zero value is not usable; use New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry

	// loadFailures caches the error from a failed lazy-load attempt per
	// tag so a second lookup of the same unknown tag does not retry the
	// load.
	loadFailures sync.Map // map[string]error

	// loader is invoked once per unknown tag before the "unknown
	// provider" error is returned, giving a caller the chance to
	// register it lazily (e.g. loading a plugin module). A nil loader
	// means no lazy discovery is attempted.
	loader func(tag string) error
}

// New constructs an empty Registry. loader may be nil.
func New(loader func(tag string) error) *Registry {
	return &Registry{entries: make(map[string]entry), loader: loader}
}

// Register installs the factories and metadata for tag. It is
// idempotent: registering the same tag again overwrites the previous
// entry rather than erroring, matching the contract in spec.md §4.1.
func (r *Registry) Register(tag string, metadata Metadata, ext ExtractorFactory, mapper MapperFactory, src SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tag] = entry{metadata: metadata, extractor: ext, mapper: mapper, source: src}
	r.loadFailures.Delete(tag)
}

func (r *Registry) lookup(tag string) (entry, error) {
	r.mu.RLock()
	e, ok := r.entries[tag]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	if cached, ok := r.loadFailures.Load(tag); ok {
		return entry{}, cached.(error)
	}

	if r.loader != nil {
		if err := r.loader(tag); err != nil {
			wrapped := pipelineerr.Wrap(pipelineerr.ProviderNotFound, "registry", fmt.Sprintf("load %q", tag), err)
			r.loadFailures.Store(tag, wrapped)
			return entry{}, wrapped
		}
		r.mu.RLock()
		e, ok := r.entries[tag]
		r.mu.RUnlock()
		if ok {
			return e, nil
		}
	}

	err := pipelineerr.New(pipelineerr.ProviderNotFound, "registry", fmt.Sprintf("unknown provider type %q", tag))
	r.loadFailures.Store(tag, err)
	return entry{}, err
}

// GetMetadata returns the metadata registered for tag.
func (r *Registry) GetMetadata(tag string) (Metadata, error) {
	e, err := r.lookup(tag)
	if err != nil {
		return Metadata{}, err
	}
	return e.metadata, nil
}

// ValidateConfig checks cfg against tag's declared ConfigSchema, when
// one is registered. A provider type with no ConfigSchema accepts any
// bag containing its RequiredConfigKeys (checked upstream by the
// caller); this is purely the typed-schema layer on top.
func (r *Registry) ValidateConfig(tag string, cfg map[string]any) error {
	e, err := r.lookup(tag)
	if err != nil {
		return err
	}
	if e.metadata.ConfigSchema == "" {
		return nil
	}
	if err := config.ValidateBag(e.metadata.ConfigSchema, cfg); err != nil {
		return pipelineerr.Wrap(pipelineerr.ConfigInvalid, "registry", fmt.Sprintf("provider type %q config", tag), err)
	}
	return nil
}

// NewExtractor builds tag's Extractor from cfg.
func (r *Registry) NewExtractor(tag string, cfg map[string]any) (Extractor, error) {
	e, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	return e.extractor(cfg)
}

// NewMapper builds tag's mapping.Mapper from cfg.
func (r *Registry) NewMapper(tag string, cfg map[string]any) (mapping.Mapper, error) {
	e, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	return e.mapper(cfg)
}

// NewSource builds tag's Source from cfg.
func (r *Registry) NewSource(tag string, cfg map[string]any) (Source, error) {
	e, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	return e.source(cfg)
}

// Tags returns the currently registered provider-type tags.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.entries))
	for tag := range r.entries {
		tags = append(tags, tag)
	}
	return tags
}
