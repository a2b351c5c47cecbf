package aws

import (
	"context"
	"errors"

	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

// errNoObjectStoreOpener mirrors providers/azure's gap: AWS's Cost and
// Usage Report lands in an s3:// bucket, and this module ships only a
// file:// LocalOpener. A real deployment calls filestore.New with an
// S3-backed FileOpener directly instead of going through this factory.
var errNoObjectStoreOpener = errors.New("aws: no s3:// object-store opener configured; use filestore.New with a custom FileOpener")

// Tag is this provider type's registry key.
const Tag = "aws"

// configSchema validates a Provider.Config bag for this type: the S3
// bucket and region the CUR export lands in, nothing else.
const configSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["bucket_name", "aws_region"],
	"properties": {
		"bucket_name": { "type": "string", "minLength": 1 },
		"aws_region": { "type": "string", "minLength": 1 }
	},
	"additionalProperties": false
}`

// Register installs this provider's factories into reg.
func Register(reg *registry.Registry) {
	reg.Register(Tag, registry.Metadata{
		Tag:                Tag,
		DisplayName:        "Amazon Web Services",
		SupportedMethods:   auth.SupportedMethods{auth.MethodServiceAccount, auth.MethodDefaultCredentials},
		DefaultMethod:      auth.MethodServiceAccount,
		RequiredConfigKeys: []string{"bucket_name", "aws_region"},
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
	bucket, _ := cfg["bucket_name"].(string)
	return staticSource{bucket: bucket}, nil
}

// staticSource describes AWS's FOCUS 1.0 parquet export, delivered as a
// scheduled export to an s3:// bucket rather than discovered per-window
// via an API call — the general "**/*.parquet" pattern is used since
// filtering happens on the ChargePeriodStart column, not the file path
// (original_source's AWSSource._build_focus_file_pattern).
type staticSource struct {
	bucket string
}

func (s staticSource) Descriptors(_ context.Context, window source.Window) ([]source.Descriptor, error) {
	return []source.Descriptor{
		{
			Name:       "aws_focus_export",
			SourceType: source.TypeFilesystem,
			Config: map[string]any{
				"url":            s.bucket,
				"glob":           "**/*.parquet",
				"format":         string(source.FileFormatParquet),
				"compression":    string(source.CompressionSnappy),
				"date_column":    "ChargePeriodStart",
				"pushdown_start": window.Start.Unix(),
				"pushdown_end":   window.End.Unix(),
			},
		},
	}, nil
}
