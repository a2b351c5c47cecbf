package mapping

// extractFromKeys checks keys in order against a raw record and returns
// the first non-empty string value found, coercing non-string values
// with a best-effort stringField-style conversion. Adapted from
// sdk/go/pluginsdk/mapping's extractFromKeys (originally over
// map[string]string Pulumi resource properties) to operate on the
// map[string]any raw billing records this module's mappers receive.
func extractFromKeys(raw map[string]any, keys ...string) string {
	if raw == nil {
		return ""
	}
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
