// Package mapping defines the standardized FOCUS mapping workflow
// every provider mapper implements. A Mapper supplies the mandatory
// hooks (Costs, Account, TimePeriod, Service, Charge); any of the
// optional hook interfaces it also implements (ResourceMapper,
// LocationMapper, SKUMapper, CommitmentMapper, UsageMapper, TagMapper,
// ProviderExtensionsMapper) are detected by type assertion in Run and
// consulted if present — a provider with no resources simply does not
// implement ResourceMapper.
package mapping

import "time"

// CostInfo is the mandatory cost hook's result.
type CostInfo struct {
	BilledCost     float64
	EffectiveCost  float64
	ListCost       float64
	ContractedCost float64
	Currency       string // defaults to "USD" if empty

	// PricingCurrency and PricingCurrencyEffectiveCost are the
	// conditional pricing-currency pair: populated only when pricing
	// happens in a currency other than Currency.
	PricingCurrency              string
	PricingCurrencyEffectiveCost float64
}

// AccountInfo is the mandatory account hook's result.
type AccountInfo struct {
	BillingAccountID   string
	BillingAccountName string
	BillingAccountType string
	SubAccountID       string
	SubAccountName     string
	SubAccountType     string
}

// TimeInfo is the mandatory time-period hook's result. BillingPeriod
// fields are optional; Run derives the calendar month containing the
// charge period when they are zero.
type TimeInfo struct {
	ChargePeriodStart  time.Time
	ChargePeriodEnd    time.Time
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
}

// ServiceInfo is the mandatory service hook's result.
type ServiceInfo struct {
	ServiceName        string
	ServiceCategory    string // corrected to the closed set by Run
	ServiceSubcategory string
	ProviderName       string
	PublisherName      string
	InvoiceIssuerName  string

	// InvoiceID and InvoiceIssuer are recommended fields recovered from
	// original_source; InvoiceIssuer is the invoicing entity's own
	// identifier, distinct from the mandatory InvoiceIssuerName.
	InvoiceID     string
	InvoiceIssuer string
}

// ChargeInfo is the mandatory charge hook's result.
type ChargeInfo struct {
	ChargeCategory    string // corrected to the closed set by Run
	ChargeDescription string
	ChargeClass       string
	ChargeFrequency   string
	PricingQuantity   float64
	PricingUnit       string
}

// ResourceInfo is the optional resource hook's result.
type ResourceInfo struct {
	ResourceID   string
	ResourceName string
	ResourceType string
}

// LocationInfo is the optional location hook's result.
type LocationInfo struct {
	RegionID         string
	RegionName       string
	AvailabilityZone string
}

// SKUInfo is the optional SKU hook's result.
type SKUInfo struct {
	SKUID               string
	SKUPriceID          string
	SKUMeter            string
	SKUPriceDetails     string
	SKUDescription      string
	ListUnitPrice       float64
	ContractedUnitPrice float64

	// PricingCurrencyListUnitPrice and PricingCurrencyContractedUnitPrice
	// are this SKU's unit prices restated in CostInfo.PricingCurrency
	// (conditional group, recovered from original_source).
	PricingCurrencyListUnitPrice       float64
	PricingCurrencyContractedUnitPrice float64
}

// CommitmentInfo is the optional commitment-discount hook's result.
type CommitmentInfo struct {
	CommitmentDiscountID       string
	CommitmentDiscountType     string
	CommitmentDiscountCategory string
	CommitmentDiscountName     string
	CommitmentDiscountStatus   string // corrected to the closed set by Run
	CommitmentDiscountQuantity float64
	CommitmentDiscountUnit     string
}

// UsageInfo is the optional usage hook's result.
type UsageInfo struct {
	ConsumedQuantity float64
	ConsumedUnit     string
}
