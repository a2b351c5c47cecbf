package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _ source.Descriptor, _ source.Window) (registry.RawBatch, error) {
	return registry.RawBatch{}, nil
}

type stubSource struct{}

func (stubSource) Descriptors(_ context.Context, _ source.Window) ([]source.Descriptor, error) {
	return nil, nil
}

type stubMapper struct{}

func (stubMapper) IsValidRecord(map[string]any) bool                { return true }
func (stubMapper) SplitRecord(raw map[string]any) []map[string]any  { return mapping.DefaultSplit(raw) }
func (stubMapper) Costs(map[string]any) (mapping.CostInfo, error)   { return mapping.CostInfo{}, nil }
func (stubMapper) Account(map[string]any) (mapping.AccountInfo, error) {
	return mapping.AccountInfo{}, nil
}
func (stubMapper) TimePeriod(map[string]any) (mapping.TimeInfo, error) { return mapping.TimeInfo{}, nil }
func (stubMapper) Service(map[string]any) (mapping.ServiceInfo, error) {
	return mapping.ServiceInfo{}, nil
}
func (stubMapper) Charge(map[string]any) (mapping.ChargeInfo, error) { return mapping.ChargeInfo{}, nil }
func (stubMapper) SurrogateID(map[string]any) (string, error)       { return "stub", nil }

func registerStub(r *registry.Registry, tag string) {
	registerStubWithSchema(r, tag, "")
}

func registerStubWithSchema(r *registry.Registry, tag, schema string) {
	r.Register(tag, registry.Metadata{
		Tag:              tag,
		DisplayName:      tag,
		SupportedMethods: auth.SupportedMethods{auth.MethodBearerToken},
		DefaultMethod:    auth.MethodBearerToken,
		ConfigSchema:     schema,
	},
		func(map[string]any) (registry.Extractor, error) { return stubExtractor{}, nil },
		func(map[string]any) (mapping.Mapper, error) { return stubMapper{}, nil },
		func(map[string]any) (registry.Source, error) { return stubSource{}, nil },
	)
}

func TestRegister_IsIdempotent(t *testing.T) {
	t.Parallel()

	r := registry.New(nil)
	registerStub(r, "openai")
	registerStub(r, "openai")

	if got := len(r.Tags()); got != 1 {
		t.Errorf("Tags() len = %d, want 1", got)
	}
}

func TestGetMetadata_UnknownProvider(t *testing.T) {
	t.Parallel()

	r := registry.New(nil)
	_, err := r.GetMetadata("nonexistent")

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.ProviderNotFound {
		t.Fatalf("expected ProviderNotFound, got %v", err)
	}
}

func TestNewExtractor_NewMapper_NewSource(t *testing.T) {
	t.Parallel()

	r := registry.New(nil)
	registerStub(r, "openai")

	if _, err := r.NewExtractor("openai", nil); err != nil {
		t.Errorf("NewExtractor() error = %v", err)
	}
	if _, err := r.NewMapper("openai", nil); err != nil {
		t.Errorf("NewMapper() error = %v", err)
	}
	if _, err := r.NewSource("openai", nil); err != nil {
		t.Errorf("NewSource() error = %v", err)
	}
}

func TestValidateConfig_NoSchemaAcceptsAnything(t *testing.T) {
	t.Parallel()

	r := registry.New(nil)
	registerStub(r, "openai")

	if err := r.ValidateConfig("openai", map[string]any{"anything": "goes"}); err != nil {
		t.Errorf("ValidateConfig() error = %v, want nil", err)
	}
}

func TestValidateConfig_UnknownProviderReportsNotFound(t *testing.T) {
	t.Parallel()

	r := registry.New(nil)

	err := r.ValidateConfig("nonexistent", nil)
	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.ProviderNotFound {
		t.Fatalf("expected ProviderNotFound, got %v", err)
	}
}

func TestValidateConfig_RejectsBagMissingRequiredKey(t *testing.T) {
	t.Parallel()

	const schema = `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["bucket_name"],
		"properties": {"bucket_name": {"type": "string"}}
	}`
	r := registry.New(nil)
	registerStubWithSchema(r, "aws", schema)

	err := r.ValidateConfig("aws", map[string]any{})
	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.ConfigInvalid {
		t.Fatalf("expected ConfigInvalid, got %v", err)
	}
}

func TestValidateConfig_AcceptsBagSatisfyingSchema(t *testing.T) {
	t.Parallel()

	const schema = `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["bucket_name"],
		"properties": {"bucket_name": {"type": "string"}}
	}`
	r := registry.New(nil)
	registerStubWithSchema(r, "aws", schema)

	if err := r.ValidateConfig("aws", map[string]any{"bucket_name": "cur-exports"}); err != nil {
		t.Errorf("ValidateConfig() error = %v, want nil", err)
	}
}

func TestLazyDiscovery_CachesFailure(t *testing.T) {
	t.Parallel()

	attempts := 0
	r := registry.New(func(tag string) error {
		attempts++
		return errors.New("plugin module not found")
	})

	if _, err := r.GetMetadata("missing"); err == nil {
		t.Fatal("expected error for missing provider")
	}
	if _, err := r.GetMetadata("missing"); err == nil {
		t.Fatal("expected error for missing provider on second lookup")
	}
	if attempts != 1 {
		t.Errorf("loader invoked %d times, want 1 (second lookup should use cached failure)", attempts)
	}
}

func TestLazyDiscovery_SucceedsAndRegisters(t *testing.T) {
	t.Parallel()

	r := registry.New(func(tag string) error {
		registerStub(r, tag)
		return nil
	})

	meta, err := r.GetMetadata("lazy-loaded")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.Tag != "lazy-loaded" {
		t.Errorf("Tag = %q, want lazy-loaded", meta.Tag)
	}
}
