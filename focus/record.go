package focus

import "time"

// Record is a single normalized FOCUS 1.2 line item. It is a pure value
// type: no persistence tags, no RPC framing. Conversion happens at the
// store boundary or inside a mapping.Mapper, never here.
type Record struct {
	// Costs. Non-negative, FOCUS "decimal" columns represented as float64
	// to match the teacher's protobuf double fields.
	BilledCost      float64
	EffectiveCost   float64
	ListCost        float64
	ContractedCost  float64

	// Account.
	BillingAccountID   string
	BillingAccountName string
	BillingAccountType string
	SubAccountID       string
	SubAccountName     string
	SubAccountType     string

	// Periods, always UTC.
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
	ChargePeriodStart  time.Time
	ChargePeriodEnd    time.Time

	// Currency.
	BillingCurrency  string
	PricingCurrency  string

	// Service.
	ServiceName        string
	ServiceCategory    ServiceCategory
	ServiceSubcategory string
	ProviderName       string
	PublisherName      string
	InvoiceIssuerName  string

	// Charge.
	ChargeCategory    ChargeCategory
	ChargeDescription string
	ChargeClass       ChargeClass
	ChargeFrequency   ChargeFrequency
	PricingQuantity   float64
	PricingUnit       string
	ConsumedQuantity  float64
	ConsumedUnit      string

	// Resource (conditional group).
	ResourceID   string
	ResourceName string
	ResourceType string

	// Location (conditional group).
	Region           string
	AvailabilityZone string

	// SKU (conditional group).
	SKUID           string
	SKUPriceID      string
	SKUMeter        string
	SKUPriceDetails string

	// Pricing extras recovered from original_source.
	PricingCategory     string
	ListUnitPrice       float64
	ContractedUnitPrice float64

	// Pricing-currency-denominated prices (conditional group recovered
	// from original_source; populated only when PricingCurrency differs
	// from BillingCurrency).
	PricingCurrencyContractedUnitPrice float64
	PricingCurrencyEffectiveCost       float64
	PricingCurrencyListUnitPrice       float64

	// Capacity reservation (conditional group: Status requires ID).
	CapacityReservationID     string
	CapacityReservationStatus string

	// Commitment discount (conditional group: quantity requires unit).
	CommitmentDiscountID       string
	CommitmentDiscountName     string
	CommitmentDiscountStatus   CommitmentDiscountStatus
	CommitmentDiscountType     string
	CommitmentDiscountCategory string
	CommitmentDiscountQuantity float64
	CommitmentDiscountUnit     string

	// SKU extras recovered from original_source.
	SKUDescription string

	// Invoice extras recovered from original_source.
	InvoiceID     string
	InvoiceIssuer string

	// Tags, provider-specific passthrough.
	Tags map[string]string

	// Extensions (x_ prefixed in the wire/storage representation).
	XProviderID        string
	XProviderData      map[string]any
	XRawBillingDataID  string
	XCreatedAt         time.Time
	XUpdatedAt         time.Time

	// SurrogateID is assigned by the mapper during extraction and is part
	// of the merge-key identity tuple; it must be stable across replays
	// of the same raw record.
	SurrogateID string
}
