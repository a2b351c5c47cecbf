package azure

import (
	"context"
	"errors"

	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

// errNoObjectStoreOpener is returned by newExtractor until a caller
// supplies an az:// FileOpener (e.g. an Azure Blob Storage SDK
// adapter); this module ships only the file:// LocalOpener, so Azure
// deployments must call filestore.New with their own opener directly
// rather than through this factory.
var errNoObjectStoreOpener = errors.New("azure: no az:// object-store opener configured; use filestore.New with a custom FileOpener")

// Tag is this provider type's registry key.
const Tag = "azure"

// configSchema validates a Provider.Config bag for this type: the
// subscription and storage account the UsageDetails export lands in.
const configSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["subscription_id", "storage_account_url"],
	"properties": {
		"subscription_id": { "type": "string", "minLength": 1 },
		"storage_account_url": { "type": "string", "minLength": 1 }
	},
	"additionalProperties": false
}`

// Register installs this provider's factories into reg.
func Register(reg *registry.Registry) {
	reg.Register(Tag, registry.Metadata{
		Tag:                Tag,
		DisplayName:        "Microsoft Azure",
		SupportedMethods:   auth.SupportedMethods{auth.MethodServiceAccount, auth.MethodManagedIdentity, auth.MethodDefaultCredentials},
		DefaultMethod:      auth.MethodServiceAccount,
		RequiredConfigKeys: []string{"subscription_id", "storage_account_url"},
		DefaultSourceType:  string(source.TypeFilesystem),
		ConfigSchema:       configSchema,
	}, newExtractor, newMapper, newSource)
}

func newExtractor(map[string]any) (registry.Extractor, error) {
	return nil, errNoObjectStoreOpener
}

func newMapper(map[string]any) (mapping.Mapper, error) {
	return New(), nil
}

func newSource(cfg map[string]any) (registry.Source, error) {
	storageURL, _ := cfg["storage_account_url"].(string)
	return staticSource{storageURL: storageURL}, nil
}

// staticSource describes Azure's exported UsageDetails files, delivered
// as a scheduled export to blob storage (az:// scheme) rather than
// discovered via an API call per window.
type staticSource struct {
	storageURL string
}

func (s staticSource) Descriptors(_ context.Context, window source.Window) ([]source.Descriptor, error) {
	return []source.Descriptor{
		{
			Name:       "usage_details_export",
			SourceType: source.TypeFilesystem,
			Config: map[string]any{
				"url":            s.storageURL,
				"glob":           "*.csv",
				"format":         string(source.FileFormatCSV),
				"compression":    string(source.CompressionNone),
				"date_column":    "ChargePeriodStart",
				"pushdown_start": window.Start.Unix(),
				"pushdown_end":   window.End.Unix(),
			},
		},
	}, nil
}
