package config

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// CompiledSchema validates a provider's additional_config or
// SourceDescriptor.config bag against the JSON Schema text declared in
// that provider's registry.Metadata.ConfigSchema.
type CompiledSchema struct {
	schema *jsonschema.Schema
}

// CompileSchema compiles schemaJSON (a draft 2020-12 JSON Schema
// document) for repeated use against config bags. An empty schemaJSON
// compiles to a no-op schema that accepts anything.
func CompileSchema(schemaJSON string) (*CompiledSchema, error) {
	if schemaJSON == "" {
		return &CompiledSchema{}, nil
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("bag.json", bytes.NewReader([]byte(schemaJSON))); err != nil {
		return nil, fmt.Errorf("config: add schema resource: %w", err)
	}
	sch, err := c.Compile("bag.json")
	if err != nil {
		return nil, fmt.Errorf("config: compile schema: %w", err)
	}
	return &CompiledSchema{schema: sch}, nil
}

// Validate checks bag against the compiled schema. bag is typically a
// provider's AuthConfig, Config, or a SourceDescriptor.Config map
// already decoded into Go values (map[string]any, []any, string,
// float64, bool, nil).
func (c *CompiledSchema) Validate(bag map[string]any) error {
	if c == nil || c.schema == nil {
		return nil
	}
	if err := c.schema.Validate(bag); err != nil {
		return fmt.Errorf("config: bag failed schema validation: %w", err)
	}
	return nil
}

// ValidateBag is a one-shot convenience wrapper around CompileSchema
// and Validate for callers that do not need to reuse the compiled
// schema across many bags (e.g. registry.Registry.Validate, invoked
// once per Trigger).
func ValidateBag(schemaJSON string, bag map[string]any) error {
	sch, err := CompileSchema(schemaJSON)
	if err != nil {
		return err
	}
	return sch.Validate(bag)
}
