// Package registry is the process-wide, read-mostly table mapping a
// provider-type tag to its extractor, mapper, and source-descriptor
// factories plus descriptive metadata. Each providers/<tag> package
// calls Register exactly once from its init(); there is no
// decorator-driven side-effect scanning.
package registry

import (
	"github.com/rshade/billingfocus/auth"
)

// Metadata describes a registered provider type for UI/validation
// purposes. It is descriptive only — the core never branches on it
// beyond auth-method validation.
type Metadata struct {
	Tag                string
	DisplayName        string
	SupportedMethods   auth.SupportedMethods
	DefaultMethod      auth.Method
	RequiredConfigKeys []string
	OptionalConfigKeys []string
	DefaultSourceType  string

	// ConfigSchema is a JSON Schema document (draft 2020-12) that
	// config.ValidateBag applies to the provider's additional_config
	// and SourceDescriptor.config bags. Empty means no schema
	// validation beyond RequiredConfigKeys.
	ConfigSchema string
}
