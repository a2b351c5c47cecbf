// Package openai implements the FOCUS mapper for OpenAI's usage
// aggregation API, grounded on
// original_source/backend/tests/unit/providers/openai/test_openai_mapper.py
// and .../utils/test_cost_calculator.py.
package openai

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rshade/billingfocus/mapping"
)

// Mapper maps OpenAI usage_aggregation records into FOCUS records. One
// token-usage record with both input and output tokens splits into two
// FOCUS records (spec.md §8 scenario S1); image/audio/request usage
// records never split.
type Mapper struct {
	OrganizationID string
}

// New constructs a Mapper from a provider's resolved configuration.
// organizationID may be empty; account info then falls back to the
// "unknown" organization identity the original mapper uses.
func New(organizationID string) *Mapper {
	return &Mapper{OrganizationID: organizationID}
}

const tokenTypeKey = "_openai_token_type"
const tokenCountKey = "_openai_token_count"

func (m *Mapper) IsValidRecord(raw map[string]any) bool {
	if raw == nil {
		return false
	}
	if s, _ := raw["object"].(string); s != "usage_aggregation" {
		return false
	}
	if _, ok := raw["model"].(string); !ok {
		return false
	}
	if _, ok := raw["api_key_id"].(string); !ok {
		return false
	}
	return hasUsageData(raw)
}

func hasUsageData(raw map[string]any) bool {
	if intField(raw, "input_tokens") > 0 || intField(raw, "output_tokens") > 0 {
		return true
	}
	if intField(raw, "num_images") > 0 {
		return true
	}
	if intField(raw, "num_seconds") > 0 {
		return true
	}
	if intField(raw, "num_model_requests") > 0 {
		return true
	}
	return false
}

func (m *Mapper) SplitRecord(raw map[string]any) []map[string]any {
	inputTokens := intField(raw, "input_tokens")
	outputTokens := intField(raw, "output_tokens")

	if inputTokens <= 0 && outputTokens <= 0 {
		return mapping.DefaultSplit(raw)
	}

	var out []map[string]any
	if inputTokens > 0 {
		split := cloneRecord(raw)
		split[tokenTypeKey] = "input"
		split[tokenCountKey] = inputTokens
		out = append(out, split)
	}
	if outputTokens > 0 {
		split := cloneRecord(raw)
		split[tokenTypeKey] = "output"
		split[tokenCountKey] = outputTokens
		out = append(out, split)
	}
	return out
}

func (m *Mapper) Costs(raw map[string]any) (mapping.CostInfo, error) {
	model, _ := raw["model"].(string)

	var total float64
	switch tokenType, _ := raw[tokenTypeKey].(string); tokenType {
	case "input":
		total = calculateTokenCost(model, intField(raw, tokenCountKey), 0)
	case "output":
		total = calculateTokenCost(model, 0, intField(raw, tokenCountKey))
	default:
		total = m.regularCost(raw, model)
	}

	return mapping.CostInfo{BilledCost: total, EffectiveCost: total, ListCost: total, Currency: "USD"}, nil
}

func (m *Mapper) regularCost(raw map[string]any, model string) float64 {
	switch {
	case intField(raw, "input_tokens") > 0 || intField(raw, "output_tokens") > 0:
		return calculateTokenCost(model, intField(raw, "input_tokens"), intField(raw, "output_tokens"))
	case intField(raw, "num_images") > 0:
		size, _ := raw["image_size"].(string)
		return calculateImageCost(model, intField(raw, "num_images"), size)
	case intField(raw, "num_seconds") > 0:
		return calculateAudioCost(float64(intField(raw, "num_seconds")))
	default:
		return calculateRequestCost(intField(raw, "num_model_requests"))
	}
}

func (m *Mapper) Account(raw map[string]any) (mapping.AccountInfo, error) {
	apiKeyID, _ := raw["api_key_id"].(string)

	orgID := m.OrganizationID
	if orgID == "" {
		return mapping.AccountInfo{
			BillingAccountID:   "openai_org_unknown",
			BillingAccountName: "OpenAI Organization",
			BillingAccountType: "BillingAccount",
			SubAccountID:       apiKeyID,
			SubAccountName:     maskAPIKey(apiKeyID),
			SubAccountType:     "APIKey",
		}, nil
	}

	return mapping.AccountInfo{
		BillingAccountID:   "openai_org_" + orgID,
		BillingAccountName: "OpenAI Organization " + orgID,
		BillingAccountType: "BillingAccount",
		SubAccountID:       apiKeyID,
		SubAccountName:     maskAPIKey(apiKeyID),
		SubAccountType:     "APIKey",
	}, nil
}

// maskAPIKey renders "API Key: ...n-abc123" keeping only the trailing 8
// characters, matching the original mapper's redaction.
func maskAPIKey(key string) string {
	if key == "" {
		return "API Key: ..."
	}
	if len(key) <= 8 {
		return "API Key: ..." + key
	}
	return "API Key: ..." + key[len(key)-8:]
}

func (m *Mapper) TimePeriod(raw map[string]any) (mapping.TimeInfo, error) {
	start, startOK := unixField(raw, "bucket_start_time")
	end, endOK := unixField(raw, "bucket_end_time")
	if !startOK || !endOK {
		now := time.Now().UTC()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return mapping.TimeInfo{ChargePeriodStart: day, ChargePeriodEnd: day.AddDate(0, 0, 1)}, nil
	}
	return mapping.TimeInfo{ChargePeriodStart: start, ChargePeriodEnd: end}, nil
}

func (m *Mapper) Service(raw map[string]any) (mapping.ServiceInfo, error) {
	model, _ := raw["model"].(string)

	name, sub := serviceNameFor(model, raw)
	return mapping.ServiceInfo{
		ServiceName:        name,
		ServiceCategory:    "AI and Machine Learning",
		ServiceSubcategory: sub,
		ProviderName:       "OpenAI",
		PublisherName:      "OpenAI",
		InvoiceIssuerName:  "OpenAI",
	}, nil
}

func serviceNameFor(model string, raw map[string]any) (name, subcategory string) {
	switch {
	case intField(raw, "num_images") > 0:
		return "Image Generation", modelSubcategory(model)
	case intField(raw, "num_seconds") > 0:
		return "Speech to Text", "Speech-to-Text"
	default:
		return "Chat Completions", modelSubcategory(model)
	}
}

func modelSubcategory(model string) string {
	switch model {
	case "dall-e-3":
		return "DALL-E 3"
	case "dall-e-2":
		return "DALL-E 2"
	case "gpt-4o", "gpt-4o-mini", "o3":
		return "Advanced Models"
	default:
		return "Standard Models"
	}
}

func (m *Mapper) Charge(raw map[string]any) (mapping.ChargeInfo, error) {
	tokenType, _ := raw[tokenTypeKey].(string)
	if tokenType == "input" || tokenType == "output" {
		count := intField(raw, tokenCountKey)
		return mapping.ChargeInfo{
			ChargeCategory:    "Usage",
			ChargeDescription: fmt.Sprintf("%s %d %s tokens", commaInt(count), count, tokenType),
			PricingQuantity:   float64(count),
			PricingUnit:       "tokens",
		}, nil
	}

	switch {
	case intField(raw, "num_images") > 0:
		n := intField(raw, "num_images")
		return mapping.ChargeInfo{
			ChargeCategory:    "Usage",
			ChargeDescription: fmt.Sprintf("%d images generated", n),
			PricingQuantity:   float64(n),
			PricingUnit:       "images",
		}, nil
	case intField(raw, "num_seconds") > 0:
		n := intField(raw, "num_seconds")
		return mapping.ChargeInfo{
			ChargeCategory:    "Usage",
			ChargeDescription: fmt.Sprintf("%d seconds transcribed", n),
			PricingQuantity:   float64(n),
			PricingUnit:       "seconds",
		}, nil
	default:
		n := intField(raw, "num_model_requests")
		return mapping.ChargeInfo{
			ChargeCategory:    "Usage",
			ChargeDescription: fmt.Sprintf("%d model requests", n),
			PricingQuantity:   float64(n),
			PricingUnit:       "requests",
		}, nil
	}
}

// commaInt renders n with thousands separators, matching the original
// mapper's "1,000 input tokens" description text. Only magnitudes up to
// a few million are expected, so a simple implementation suffices.
func commaInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// SurrogateID derives a deterministic identity from the bucket window,
// model, api key, and (for split token records) the token type, so
// replaying the same raw record always yields the same FOCUS merge key
// (see DESIGN.md's surrogate-id-determinism deviation).
func (m *Mapper) SurrogateID(raw map[string]any) (string, error) {
	model, _ := raw["model"].(string)
	apiKeyID, _ := raw["api_key_id"].(string)
	tokenType, _ := raw[tokenTypeKey].(string)
	start := fmt.Sprintf("%v", raw["bucket_start_time"])
	end := fmt.Sprintf("%v", raw["bucket_end_time"])

	h := sha256.Sum256([]byte(model + "|" + apiKeyID + "|" + tokenType + "|" + start + "|" + end))
	return "openai_" + hex.EncodeToString(h[:])[:16], nil
}

func intField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func unixField(raw map[string]any, key string) (time.Time, bool) {
	switch v := raw[key].(type) {
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func cloneRecord(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
