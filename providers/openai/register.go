package openai

import (
	"context"

	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/extract/restapi"
	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

// Tag is this provider type's registry key.
const Tag = "openai"

// configSchema validates a Provider.Config bag for this type: the
// organization whose completions usage is read.
const configSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["organization_id"],
	"properties": {
		"organization_id": { "type": "string", "minLength": 1 }
	},
	"additionalProperties": false
}`

// Register installs this provider's factories into reg. Called from
// cmd/billingfocusd's provider wiring, not from an init() — registry's
// own doc comment reserves init()-time registration for providers that
// need no further configuration, which does not describe this package
// (organization_id and api key are resolved per-Provider row).
func Register(reg *registry.Registry) {
	reg.Register(Tag, registry.Metadata{
		Tag:                Tag,
		DisplayName:        "OpenAI",
		SupportedMethods:   auth.SupportedMethods{auth.MethodAPIKey, auth.MethodBearerToken},
		DefaultMethod:      auth.MethodAPIKey,
		RequiredConfigKeys: []string{"organization_id"},
		DefaultSourceType:  string(source.TypeRestApi),
		ConfigSchema:       configSchema,
	}, newExtractor, newMapper, newSource)
}

func newExtractor(cfg map[string]any) (registry.Extractor, error) {
	authValue, _ := cfg["_resolved_auth_value"].(string)
	ext := restapi.New("https://api.openai.com", restapi.AuthHeader{Name: "Authorization", Value: "Bearer " + authValue})
	return ext, nil
}

func newMapper(cfg map[string]any) (mapping.Mapper, error) {
	orgID, _ := cfg["organization_id"].(string)
	return New(orgID), nil
}

func newSource(cfg map[string]any) (registry.Source, error) {
	orgID, _ := cfg["organization_id"].(string)
	return staticSource{orgID: orgID}, nil
}

// staticSource describes the single completions-usage endpoint this
// provider reads from; OpenAI's usage API has no per-resource
// discovery step, unlike AWS's per-account CUR export enumeration.
type staticSource struct {
	orgID string
}

func (s staticSource) Descriptors(_ context.Context, _ source.Window) ([]source.Descriptor, error) {
	return []source.Descriptor{
		{
			Name:       "completions_usage",
			SourceType: source.TypeRestApi,
			Config: map[string]any{
				"path":              "/v1/organization/usage/completions",
				"method":            "GET",
				"response_selector": "/data",
				"pagination":        string(source.PaginationPageNumber),
			},
		},
	}, nil
}
