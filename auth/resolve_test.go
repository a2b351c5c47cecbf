package auth_test

import (
	"errors"
	"testing"

	"github.com/rshade/billingfocus/auth"
	"github.com/rshade/billingfocus/pipelineerr"
)

func TestResolve_BearerToken(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"method": "bearer_token", "token": "sk-test"}
	cfg, err := auth.Resolve(raw, auth.SupportedMethods{auth.MethodBearerToken})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Method != auth.MethodBearerToken {
		t.Errorf("Method = %q, want bearer_token", cfg.Method)
	}
}

func TestResolve_UnsupportedMethod(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"method": "api_key", "key": "abc"}
	_, err := auth.Resolve(raw, auth.SupportedMethods{auth.MethodBearerToken})

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.UnsupportedAuthMethod {
		t.Fatalf("expected UnsupportedAuthMethod, got %v", err)
	}
}

func TestResolve_UnknownMethodAlwaysRejected(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"method": "totally_unknown"}
	_, err := auth.Resolve(raw, auth.SupportedMethods{auth.MethodCustom})

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.UnsupportedAuthMethod {
		t.Fatalf("expected UnsupportedAuthMethod for unrecognized method, got %v", err)
	}
}

func TestResolve_MissingRequiredField(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"method": "bearer_token"}
	_, err := auth.Resolve(raw, auth.SupportedMethods{auth.MethodBearerToken})

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.MissingAuthField {
		t.Fatalf("expected MissingAuthField, got %v", err)
	}
}

func TestResolve_Certificate_RequiresCertAndKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     map[string]any
		wantErr bool
	}{
		{
			name: "both provided",
			raw: map[string]any{
				"method": "certificate", "cert_path": "/a.pem", "key_path": "/a.key",
			},
			wantErr: false,
		},
		{
			name:    "missing cert",
			raw:     map[string]any{"method": "certificate", "key_path": "/a.key"},
			wantErr: true,
		},
		{
			name:    "missing key",
			raw:     map[string]any{"method": "certificate", "cert_path": "/a.pem"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := auth.Resolve(tt.raw, auth.SupportedMethods{auth.MethodCertificate})
			if (err != nil) != tt.wantErr {
				t.Errorf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve_ManagedIdentity_NoFieldsRequired(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"method": "managed_identity"}
	if _, err := auth.Resolve(raw, auth.SupportedMethods{auth.MethodManagedIdentity}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
}

func TestResolve_MultiFactor_RecursivelyValidatesPrimaryAndSecondary(t *testing.T) {
	t.Parallel()

	supported := auth.SupportedMethods{auth.MethodMultiFactor, auth.MethodAPIKey, auth.MethodBearerToken}

	raw := map[string]any{
		"method":  "multi_factor",
		"primary": map[string]any{"method": "api_key", "key": "abc"},
		"secondary": map[string]any{
			"method": "bearer_token", "token": "xyz",
		},
	}
	cfg, err := auth.Resolve(raw, supported)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Primary == nil || cfg.Primary.Method != auth.MethodAPIKey {
		t.Error("expected Primary to resolve to api_key")
	}
	if cfg.Secondary == nil || cfg.Secondary.Method != auth.MethodBearerToken {
		t.Error("expected Secondary to resolve to bearer_token")
	}
}

func TestResolve_MultiFactor_InvalidPrimaryPropagates(t *testing.T) {
	t.Parallel()

	supported := auth.SupportedMethods{auth.MethodMultiFactor, auth.MethodAPIKey}
	raw := map[string]any{
		"method":  "multi_factor",
		"primary": map[string]any{"method": "api_key"}, // missing "key"
	}
	_, err := auth.Resolve(raw, supported)

	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) || pErr.Kind != pipelineerr.MissingAuthField {
		t.Fatalf("expected MissingAuthField from nested primary, got %v", err)
	}
}
