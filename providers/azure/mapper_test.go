package azure_test

import (
	"testing"

	"github.com/rshade/billingfocus/mapping"
	"github.com/rshade/billingfocus/providers/azure"
)

func validRecord() map[string]any {
	return map[string]any{
		"BilledCost":          "100.50",
		"EffectiveCost":       "95.00",
		"ListCost":            "110.00",
		"ContractedCost":      "95.00",
		"BillingCurrency":     "USD",
		"BillingAccountId":    "12345-67890",
		"BillingAccountName":  "Test Billing Account",
		"SubAccountId":        "sub-123",
		"SubAccountName":      "Test Subscription",
		"ChargePeriodStart":   "2024-01-01T00:00:00Z",
		"ChargePeriodEnd":     "2024-01-02T00:00:00Z",
		"BillingPeriodStart":  "2024-01-01T00:00:00Z",
		"BillingPeriodEnd":    "2024-01-31T23:59:59Z",
		"ServiceName":         "Virtual Machines",
		"ServiceCategory":     "Compute",
		"ChargeCategory":      "Usage",
		"ChargeDescription":   "VM usage charge",
		"PricingQuantity":     "24.0",
		"PricingUnit":         "Hours",
		"ResourceId":          "/subscriptions/sub-123/resourceGroups/rg-test/providers/Microsoft.Compute/virtualMachines/vm-test",
		"ResourceName":        "vm-test",
		"ResourceType":        "Microsoft.Compute/virtualMachines",
		"RegionId":            "eastus",
		"RegionName":          "East US",
		"AvailabilityZone":    "1",
		"SkuId":               "Standard_D2s_v3",
		"SkuPriceId":          "price-123",
		"ListUnitPrice":       "0.096",
		"ContractedUnitPrice": "0.096",
		"ConsumedQuantity":    "24.0",
		"ConsumedUnit":        "Hours",
	}
}

func TestCosts_Complete(t *testing.T) {
	t.Parallel()
	m := azure.New()

	cost, err := m.Costs(validRecord())
	if err != nil {
		t.Fatal(err)
	}
	if cost.BilledCost != 100.50 || cost.EffectiveCost != 95.00 || cost.ListCost != 110.00 {
		t.Errorf("cost = %+v", cost)
	}
	if cost.Currency != "USD" {
		t.Errorf("Currency = %q", cost.Currency)
	}
}

func TestCosts_MissingCurrencyDefaultsUSD(t *testing.T) {
	t.Parallel()
	m := azure.New()
	record := validRecord()
	delete(record, "BillingCurrency")

	cost, _ := m.Costs(record)
	if cost.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", cost.Currency)
	}
}

func TestCosts_InvalidAmountsDefaultZero(t *testing.T) {
	t.Parallel()
	m := azure.New()

	cost, _ := m.Costs(map[string]any{"BilledCost": "", "EffectiveCost": "", "ListCost": nil})
	if cost.BilledCost != 0 || cost.EffectiveCost != 0 || cost.ListCost != 0 {
		t.Errorf("cost = %+v, want all zero", cost)
	}
}

func TestAccount_MinimalFallsBackToID(t *testing.T) {
	t.Parallel()
	m := azure.New()

	account, _ := m.Account(map[string]any{"BillingAccountId": "12345"})
	if account.BillingAccountName != "12345" {
		t.Errorf("BillingAccountName = %q, want fallback to id", account.BillingAccountName)
	}
	if account.SubAccountID != "" {
		t.Errorf("SubAccountID = %q, want empty", account.SubAccountID)
	}
}

func TestAccount_MissingIDUsesUnknown(t *testing.T) {
	t.Parallel()
	m := azure.New()

	account, _ := m.Account(map[string]any{})
	if account.BillingAccountID != "unknown" || account.BillingAccountName != "Unknown Account" {
		t.Errorf("account = %+v", account)
	}
}

func TestService_AICategoryAlias(t *testing.T) {
	t.Parallel()
	m := azure.New()
	record := validRecord()
	record["ServiceCategory"] = "AI + Machine Learning"

	service, _ := m.Service(record)
	if service.ServiceCategory != "AI and Machine Learning" {
		t.Errorf("ServiceCategory = %q", service.ServiceCategory)
	}
}

func TestService_DatabaseCategoryAlias(t *testing.T) {
	t.Parallel()
	m := azure.New()
	record := validRecord()
	record["ServiceCategory"] = "Database"

	service, _ := m.Service(record)
	if service.ServiceCategory != "Databases" {
		t.Errorf("ServiceCategory = %q, want Databases", service.ServiceCategory)
	}
}

func TestService_FallbackToServiceName(t *testing.T) {
	t.Parallel()
	m := azure.New()

	service, _ := m.Service(map[string]any{"ServiceName": "Azure SQL Database"})
	if service.ServiceCategory != "Databases" {
		t.Errorf("ServiceCategory = %q, want Databases inferred from name", service.ServiceCategory)
	}
}

func TestCharge_NonFocusChargeClassFiltered(t *testing.T) {
	t.Parallel()
	m := azure.New()
	record := validRecord()
	record["ChargeClass"] = "Compute"

	charge, _ := m.Charge(record)
	if charge.ChargeClass != "" {
		t.Errorf("ChargeClass = %q, want filtered to empty", charge.ChargeClass)
	}
}

func TestCharge_CorrectionChargeClassKept(t *testing.T) {
	t.Parallel()
	m := azure.New()
	record := validRecord()
	record["ChargeClass"] = "Correction"

	charge, _ := m.Charge(record)
	if charge.ChargeClass != "Correction" {
		t.Errorf("ChargeClass = %q, want Correction", charge.ChargeClass)
	}
}

func TestResource_MissingIDReturnsEmpty(t *testing.T) {
	t.Parallel()
	m := azure.New()

	resource, _ := m.Resource(map[string]any{"ResourceName": "vm-test"})
	if resource.ResourceID != "" {
		t.Errorf("expected empty ResourceInfo when ResourceId missing, got %+v", resource)
	}
}

func TestSurrogateID_StableAcrossReplay(t *testing.T) {
	t.Parallel()
	m := azure.New()

	id1, _ := m.SurrogateID(validRecord())
	id2, _ := m.SurrogateID(validRecord())
	if id1 != id2 {
		t.Errorf("SurrogateID not stable: %q != %q", id1, id2)
	}
}

func TestMapperSatisfiesCapabilityInterfaces(t *testing.T) {
	t.Parallel()
	m := azure.New()
	var _ mapping.Mapper = m
	var _ mapping.ResourceMapper = m
	var _ mapping.LocationMapper = m
	var _ mapping.SKUMapper = m
	var _ mapping.UsageMapper = m
}
