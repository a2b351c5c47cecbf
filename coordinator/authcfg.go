package coordinator

import (
	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/encryptor"
)

// decryptConfig returns a deep copy of cfg with every sensitive leaf
// (per auth.SensitivePaths) decrypted in place, leaving any leaf that
// is not ciphertext untouched (plaintext values survive a restart
// taken before the first encryption pass).
func decryptConfig(cfg map[string]any, enc *encryptor.Encryptor) map[string]any {
	out := deepCopyMap(cfg)
	if enc == nil {
		return out
	}
	for _, path := range auth.SensitivePaths(cfg) {
		decryptPath(out, path, enc)
	}
	return out
}

func deepCopyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if child, ok := v.(map[string]any); ok {
			dst[k] = deepCopyMap(child)
			continue
		}
		dst[k] = v
	}
	return dst
}

func decryptPath(cfg map[string]any, dottedPath string, enc *encryptor.Encryptor) {
	keys := splitPath(dottedPath)
	node := cfg
	for i, key := range keys {
		if i == len(keys)-1 {
			s, ok := node[key].(string)
			if !ok || !encryptor.IsEncrypted(s) {
				return
			}
			plain, err := enc.Decrypt(s)
			if err != nil {
				return
			}
			node[key] = plain
			return
		}
		child, ok := node[key].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
}

func splitPath(dotted string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(dotted); i++ {
		if dotted[i] == '.' {
			parts = append(parts, dotted[start:i])
			start = i + 1
		}
	}
	return append(parts, dotted[start:])
}

// resolvedAuthValue picks the single credential value a REST-style
// extractor factory needs (see providers/openai.newExtractor's
// "_resolved_auth_value" convention) without the coordinator needing to
// know each auth method's field name.
func resolvedAuthValue(resolved *auth.Config) string {
	if resolved == nil {
		return ""
	}
	for _, field := range []string{"key", "token", "password", "client_secret", "credentials"} {
		if s, ok := resolved.Raw[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// buildProviderConfig merges a Provider's additional-config bag with
// its resolved auth config into the single map[string]any every
// registry factory (newExtractor/newMapper/newSource) expects.
func buildProviderConfig(providerConfig map[string]any, resolved *auth.Config) map[string]any {
	cfg := deepCopyMap(providerConfig)
	if resolved != nil {
		for k, v := range resolved.Raw {
			if _, exists := cfg[k]; !exists {
				cfg[k] = v
			}
		}
		cfg["_resolved_auth_value"] = resolvedAuthValue(resolved)
	}
	return cfg
}
