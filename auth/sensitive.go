package auth

import "strings"

//nolint:gochecknoglobals // closed set of sensitive-name substrings from the spec
var sensitiveSubstrings = []string{
	"key", "secret", "password", "token", "private_key", "passphrase",
	"credentials", "cert_content", "key_content",
}

// IsSensitiveFieldName reports whether name's lowercased form contains
// any of the recognized sensitive-pattern substrings.
func IsSensitiveFieldName(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range sensitiveSubstrings {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// SensitivePaths walks cfg recursively (including nested maps, such as
// the primary/secondary sub-configs of a multi_factor bag) and returns
// the dotted paths of every key whose name is sensitive. Paths are used
// by the encryption collaborator to encrypt/decrypt exactly those
// leaves, nothing else.
func SensitivePaths(cfg map[string]any) []string {
	var paths []string
	walkSensitive(cfg, "", &paths)
	return paths
}

func walkSensitive(node map[string]any, prefix string, paths *[]string) {
	for key, val := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if IsSensitiveFieldName(key) {
			*paths = append(*paths, path)
			continue
		}
		if child, ok := val.(map[string]any); ok {
			walkSensitive(child, path, paths)
		}
	}
}
