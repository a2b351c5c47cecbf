package validate

import (
	"time"

	"github.com/rshade/billingfocus/currency"
	"github.com/rshade/billingfocus/focus"
)

// Validator checks a focus.Record against the FOCUS 1.2 rules in
// spec.md §4.6. In StrictMode, any warning also counts as an error for
// Result.IsValid purposes.
type Validator struct {
	StrictMode bool
	// Now is injectable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

// New constructs a Validator. strict mirrors the Python source's
// strict_mode flag: warnings become errors.
func New(strict bool) *Validator {
	return &Validator{StrictMode: strict}
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// ValidateRecord runs every rule against rec and returns the findings.
func (v *Validator) ValidateRecord(rec focus.Record) Result {
	var result Result

	v.validateMandatoryFields(rec, &result)
	v.validateFieldValues(rec, &result)
	v.validateConditionalFields(rec, &result)
	v.validateTimePeriods(rec, &result)
	v.validateCosts(rec, &result)

	if v.StrictMode {
		result.Errors = append(result.Errors, result.Warnings...)
	}

	return result
}

func (v *Validator) validateMandatoryFields(rec focus.Record, result *Result) {
	required := []struct {
		name  string
		empty bool
	}{
		{"billing_account_id", rec.BillingAccountID == ""},
		{"billing_account_name", rec.BillingAccountName == ""},
		{"billing_account_type", rec.BillingAccountType == ""},
		{"billing_currency", rec.BillingCurrency == ""},
		{"service_name", rec.ServiceName == ""},
		{"service_category", rec.ServiceCategory == ""},
		{"provider_name", rec.ProviderName == ""},
		{"publisher_name", rec.PublisherName == ""},
		{"invoice_issuer_name", rec.InvoiceIssuerName == ""},
		{"charge_category", rec.ChargeCategory == ""},
		{"charge_description", rec.ChargeDescription == ""},
	}
	for _, field := range required {
		if field.empty {
			result.addError(field.name, field.name+" is required")
		}
	}
	if rec.ChargePeriodStart.IsZero() {
		result.addError("charge_period_start", "charge_period_start is required")
	}
	if rec.ChargePeriodEnd.IsZero() {
		result.addError("charge_period_end", "charge_period_end is required")
	}
	if rec.BillingPeriodStart.IsZero() {
		result.addError("billing_period_start", "billing_period_start is required")
	}
	if rec.BillingPeriodEnd.IsZero() {
		result.addError("billing_period_end", "billing_period_end is required")
	}
}

func (v *Validator) validateFieldValues(rec focus.Record, result *Result) {
	if !focus.IsValidServiceCategory(rec.ServiceCategory) {
		result.addError("service_category", "service_category is not in the allowed set")
	}
	if !focus.IsValidChargeCategory(rec.ChargeCategory) {
		result.addError("charge_category", "charge_category is not in the allowed set")
	}
	if !focus.IsValidChargeClass(rec.ChargeClass) {
		result.addError("charge_class", "charge_class is not in the allowed set")
	}
	if !focus.IsValidChargeFrequency(rec.ChargeFrequency) {
		result.addError("charge_frequency", "charge_frequency is not in the allowed set")
	}
	if !focus.IsValidCommitmentDiscountStatus(rec.CommitmentDiscountStatus) {
		result.addError("commitment_discount_status", "commitment_discount_status is not in the allowed set")
	}
	if rec.PricingUnit != "" && rec.PricingQuantity == 0 {
		result.addError("pricing_unit", "pricing_unit requires pricing_quantity")
	}
	if rec.BillingCurrency != "" && !currency.IsValid(rec.BillingCurrency) {
		result.addError("billing_currency", "billing_currency is not a recognized ISO 4217 code")
	}
	if rec.PricingCurrency != "" && !currency.IsValid(rec.PricingCurrency) {
		result.addError("pricing_currency", "pricing_currency is not a recognized ISO 4217 code")
	}
}

func (v *Validator) validateConditionalFields(rec focus.Record, result *Result) {
	if rec.SubAccountID != "" {
		if rec.SubAccountName == "" {
			result.addError("sub_account_name", "sub_account_name is required when sub_account_id is present")
		}
		if rec.SubAccountType == "" {
			result.addError("sub_account_type", "sub_account_type is required when sub_account_id is present")
		}
	}
	if (rec.ResourceName != "" || rec.ResourceType != "") && rec.ResourceID == "" {
		result.addError("resource_id", "resource_id is required when resource_name or resource_type is present")
	}
	if rec.AvailabilityZone != "" && rec.Region == "" {
		result.addError("region", "region is required when availability_zone is present")
	}
	if rec.CommitmentDiscountName != "" && rec.CommitmentDiscountID == "" {
		result.addError("commitment_discount_id", "commitment_discount_id is required when commitment_discount_name is present")
	}
	if rec.CommitmentDiscountQuantity != 0 && rec.CommitmentDiscountUnit == "" {
		result.addError("commitment_discount_unit", "commitment_discount_unit is required when commitment_discount_quantity is present")
	}
	if rec.ConsumedUnit != "" && rec.ConsumedQuantity == 0 {
		result.addError("consumed_unit", "consumed_unit requires consumed_quantity")
	}
	if rec.CapacityReservationStatus != "" && rec.CapacityReservationID == "" {
		result.addError("capacity_reservation_status", "capacity_reservation_status requires capacity_reservation_id")
	}
}

func (v *Validator) validateTimePeriods(rec focus.Record, result *Result) {
	if !rec.BillingPeriodEnd.IsZero() && !rec.BillingPeriodStart.IsZero() && !rec.BillingPeriodEnd.After(rec.BillingPeriodStart) {
		result.addError("billing_period_end", "billing_period_end must be after billing_period_start")
	}
	if !rec.ChargePeriodEnd.IsZero() && !rec.ChargePeriodStart.IsZero() && !rec.ChargePeriodEnd.After(rec.ChargePeriodStart) {
		result.addError("charge_period_end", "charge_period_end must be after charge_period_start")
	}

	if rec.ChargePeriodStart.Before(rec.BillingPeriodStart) {
		result.addWarning("charge_period_start", "charge_period_start is before billing_period_start")
	}
	if rec.ChargePeriodEnd.After(rec.BillingPeriodEnd) {
		result.addWarning("charge_period_end", "charge_period_end is after billing_period_end")
	}

	now := v.now()
	if rec.BillingPeriodEnd.After(now) {
		result.addWarning("billing_period_end", "billing_period_end is in the future")
	}
	if rec.ChargePeriodEnd.After(now) {
		result.addWarning("charge_period_end", "charge_period_end is in the future")
	}
}

func (v *Validator) validateCosts(rec focus.Record, result *Result) {
	costs := []struct {
		name  string
		value float64
	}{
		{"billed_cost", rec.BilledCost},
		{"effective_cost", rec.EffectiveCost},
		{"list_cost", rec.ListCost},
		{"contracted_cost", rec.ContractedCost},
	}
	for _, c := range costs {
		if c.value < 0 {
			result.addWarning(c.name, c.name+" is negative")
		}
	}
	if rec.EffectiveCost > rec.ListCost {
		result.addWarning("effective_cost", "effective_cost exceeds list_cost")
	}
	if rec.ContractedCost > rec.ListCost {
		result.addWarning("contracted_cost", "contracted_cost exceeds list_cost")
	}
	if rec.PricingQuantity > 0 && rec.ListCost == 0 {
		result.addWarning("list_cost", "list_cost is zero despite positive pricing_quantity")
	}
	if rec.ConsumedQuantity > rec.PricingQuantity {
		result.addInfo("consumed_quantity", "consumed_quantity exceeds pricing_quantity")
	}
}
