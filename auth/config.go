package auth

// Config is the validated, typed authentication configuration produced
// by Resolve. Raw holds the original bag (post-validation) so a
// provider's extractor can read provider-specific additional_config
// keys without the auth package needing to know about them.
type Config struct {
	Method Method
	Raw    map[string]any

	// Primary and Secondary are populated only when Method is
	// MethodMultiFactor; Secondary may be nil.
	Primary   *Config
	Secondary *Config
}

//nolint:gochecknoglobals // required-field table per method, consulted by Resolve
var requiredFields = map[Method][]string{
	MethodAPIKey:                  {"key"},
	MethodBearerToken:             {"token"},
	MethodBasic:                   {"username", "password"},
	MethodOAuth2ClientCredentials: {"client_id", "client_secret", "token_url"},
	MethodOAuth2AuthorizationCode: {"client_id", "client_secret", "authorization_url", "token_url", "redirect_uri"},
	MethodServiceAccount:          {"credentials"},
	MethodCredentialsFile:         {"path"},
	// MethodCertificate is validated by a dedicated rule (cert content-or-path,
	// key content-or-path), not a flat required list.
	// MethodManagedIdentity and MethodDefaultCredentials require no static
	// fields — the credential comes from the ambient environment.
	// MethodMultiFactor requires "primary" and is validated recursively.
	// MethodCustom has no fixed shape; the provider's own extractor decides.
}
