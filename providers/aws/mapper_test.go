package aws_test

import (
	"testing"

	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/providers/aws"
)

func focusRecord() map[string]any {
	return map[string]any{
		"BilledCost":        "42.00",
		"EffectiveCost":     "40.00",
		"ListCost":          "45.00",
		"ContractedCost":    "40.00",
		"BillingCurrency":   "USD",
		"BillingAccountId":  "111122223333",
		"ChargePeriodStart": "2024-01-01T00:00:00Z",
		"ChargePeriodEnd":   "2024-01-02T00:00:00Z",
		"ServiceName":       "Amazon Elastic Compute Cloud",
		"ServiceCategory":   "Database",
		"ResourceId":        "i-0abc123",
		"RegionId":          "us-east-1",
		"SkuId":             "m5.large",
	}
}

func legacyCURRecord() map[string]any {
	return map[string]any{
		"lineItem/LineItemType":     "Usage",
		"lineItem/UnblendedCost":    "12.5",
		"lineItem/CurrencyCode":     "USD",
		"bill/PayerAccountId":       "111122223333",
		"lineItem/UsageAccountId":   "444455556666",
		"lineItem/UsageStartDate":   "2024-01-01T00:00:00Z",
		"lineItem/UsageEndDate":     "2024-01-01T01:00:00Z",
		"lineItem/ProductCode":      "AmazonEC2",
		"lineItem/ResourceId":       "i-0def456",
		"lineItem/AvailabilityZone": "us-west-2a",
		"product/instanceType":      "t3.medium",
		"lineItem/UsageAmount":      "1.0",
		"pricing/unit":              "Hrs",
		"identity/LineItemId":       "abc-123-def",
	}
}

func TestIsValidRecord_BothShapes(t *testing.T) {
	t.Parallel()
	m := aws.New()

	if !m.IsValidRecord(focusRecord()) {
		t.Error("expected FOCUS-shaped record to be valid")
	}
	if !m.IsValidRecord(legacyCURRecord()) {
		t.Error("expected legacy CUR record to be valid")
	}
	if m.IsValidRecord(map[string]any{}) {
		t.Error("empty record should be invalid")
	}
	if m.IsValidRecord(nil) {
		t.Error("nil record should be invalid")
	}
}

func TestCosts_FocusShapedPassThrough(t *testing.T) {
	t.Parallel()
	m := aws.New()

	cost, err := m.Costs(focusRecord())
	if err != nil {
		t.Fatal(err)
	}
	if cost.BilledCost != 42.00 || cost.Currency != "USD" {
		t.Errorf("cost = %+v", cost)
	}
}

func TestCosts_LegacyCURDerivesFromUnblendedCost(t *testing.T) {
	t.Parallel()
	m := aws.New()

	cost, err := m.Costs(legacyCURRecord())
	if err != nil {
		t.Fatal(err)
	}
	if cost.BilledCost != 12.5 || cost.EffectiveCost != 12.5 {
		t.Errorf("cost = %+v", cost)
	}
}

func TestAccount_LegacyCURUsesPayerAndLinkedAccount(t *testing.T) {
	t.Parallel()
	m := aws.New()

	account, _ := m.Account(legacyCURRecord())
	if account.BillingAccountID != "111122223333" {
		t.Errorf("BillingAccountID = %q", account.BillingAccountID)
	}
	if account.SubAccountID != "444455556666" {
		t.Errorf("SubAccountID = %q", account.SubAccountID)
	}
}

func TestService_DatabaseAliasCorrection(t *testing.T) {
	t.Parallel()
	m := aws.New()

	service, _ := m.Service(focusRecord())
	if service.ServiceCategory != "Databases" {
		t.Errorf("ServiceCategory = %q, want Databases", service.ServiceCategory)
	}
}

func TestService_LegacyCURResolvesProductCode(t *testing.T) {
	t.Parallel()
	m := aws.New()

	service, _ := m.Service(legacyCURRecord())
	if service.ServiceName != "Amazon Elastic Compute Cloud" {
		t.Errorf("ServiceName = %q", service.ServiceName)
	}
	if service.ServiceCategory != "Compute" {
		t.Errorf("ServiceCategory = %q, want Compute", service.ServiceCategory)
	}
}

func TestLocation_LegacyCURDerivesRegionFromAZ(t *testing.T) {
	t.Parallel()
	m := aws.New()

	location, _ := m.Location(legacyCURRecord())
	if location.RegionID != "us-west-2" {
		t.Errorf("RegionID = %q, want us-west-2", location.RegionID)
	}
}

func TestSKU_LegacyCURUsesInstanceType(t *testing.T) {
	t.Parallel()
	m := aws.New()

	sku, _ := m.SKU(legacyCURRecord())
	if sku.SKUID != "t3.medium" {
		t.Errorf("SKUID = %q, want t3.medium", sku.SKUID)
	}
}

func TestSurrogateID_StableAndDistinctAcrossShapes(t *testing.T) {
	t.Parallel()
	m := aws.New()

	id1, _ := m.SurrogateID(focusRecord())
	id2, _ := m.SurrogateID(focusRecord())
	if id1 != id2 {
		t.Errorf("SurrogateID not stable: %q != %q", id1, id2)
	}

	id3, _ := m.SurrogateID(legacyCURRecord())
	if id1 == id3 {
		t.Error("FOCUS and legacy shaped records must not collide")
	}
}

func TestMapperSatisfiesCapabilityInterfaces(t *testing.T) {
	t.Parallel()
	m := aws.New()
	var _ mapping.Mapper = m
	var _ mapping.ResourceMapper = m
	var _ mapping.LocationMapper = m
	var _ mapping.SKUMapper = m
	var _ mapping.UsageMapper = m
}
