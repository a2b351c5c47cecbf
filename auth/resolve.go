package auth

import (
	"fmt"

	"github.com/rshade/billingfocus/pipelineerr"
)

// SupportedMethods is the subset of Method a given provider's metadata
// declares it accepts. Resolve rejects any raw config whose method is
// not in this set.
type SupportedMethods []Method

func (s SupportedMethods) contains(m Method) bool {
	for _, v := range s {
		if v == m {
			return true
		}
	}
	return false
}

// Resolve validates raw against supported and produces a typed Config.
// It returns a *pipelineerr.Error with Kind UnsupportedAuthMethod or
// MissingAuthField on any rule violation.
func Resolve(raw map[string]any, supported SupportedMethods) (*Config, error) {
	methodVal, ok := raw["method"]
	if !ok {
		return nil, pipelineerr.New(pipelineerr.MissingAuthField, "auth", "method")
	}
	methodStr, ok := methodVal.(string)
	if !ok {
		return nil, pipelineerr.New(pipelineerr.ConfigInvalid, "auth", "method must be a string")
	}
	method := Method(methodStr)
	if !IsValidMethod(method) {
		return nil, pipelineerr.New(pipelineerr.UnsupportedAuthMethod, "auth", fmt.Sprintf("unrecognized method %q", methodStr))
	}
	if !supported.contains(method) {
		return nil, pipelineerr.New(pipelineerr.UnsupportedAuthMethod, "auth", fmt.Sprintf("method %q not supported by this provider", methodStr))
	}

	switch method {
	case MethodCertificate:
		if err := validateCertificate(raw); err != nil {
			return nil, err
		}
	case MethodMultiFactor:
		return resolveMultiFactor(raw, supported)
	case MethodManagedIdentity, MethodDefaultCredentials, MethodCustom:
		// no static fields required
	default:
		if err := validateRequiredFields(method, raw); err != nil {
			return nil, err
		}
	}

	return &Config{Method: method, Raw: raw}, nil
}

func validateRequiredFields(method Method, raw map[string]any) error {
	for _, field := range requiredFields[method] {
		v, ok := raw[field]
		if !ok {
			return pipelineerr.New(pipelineerr.MissingAuthField, "auth", field)
		}
		if s, ok := v.(string); ok && s == "" {
			return pipelineerr.New(pipelineerr.MissingAuthField, "auth", field)
		}
	}
	return nil
}

func validateCertificate(raw map[string]any) error {
	hasCert := nonEmptyString(raw, "cert_content") || nonEmptyString(raw, "cert_path")
	hasKey := nonEmptyString(raw, "key_content") || nonEmptyString(raw, "key_path")
	if !hasCert {
		return pipelineerr.New(pipelineerr.MissingAuthField, "auth", "cert_content or cert_path")
	}
	if !hasKey {
		return pipelineerr.New(pipelineerr.MissingAuthField, "auth", "key_content or key_path")
	}
	return nil
}

func resolveMultiFactor(raw map[string]any, supported SupportedMethods) (*Config, error) {
	primaryRaw, ok := raw["primary"].(map[string]any)
	if !ok {
		return nil, pipelineerr.New(pipelineerr.MissingAuthField, "auth", "primary")
	}
	primary, err := Resolve(primaryRaw, supported)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Method: MethodMultiFactor, Raw: raw, Primary: primary}

	if secondaryVal, present := raw["secondary"]; present {
		secondaryRaw, ok := secondaryVal.(map[string]any)
		if !ok {
			return nil, pipelineerr.New(pipelineerr.ConfigInvalid, "auth", "secondary must be an object")
		}
		secondary, err := Resolve(secondaryRaw, supported)
		if err != nil {
			return nil, err
		}
		cfg.Secondary = secondary
	}

	return cfg, nil
}

func nonEmptyString(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s != ""
}
