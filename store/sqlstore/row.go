package sqlstore

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/focus"
)

// runRow is pipeline_runs' column layout.
type runRow struct {
	ID                  string       `db:"id"`
	ProviderID          string       `db:"provider_id"`
	WindowStart         time.Time    `db:"window_start"`
	WindowEnd           time.Time    `db:"window_end"`
	RunType             string       `db:"run_type"`
	Status              string       `db:"status"`
	StartedAt           time.Time    `db:"started_at"`
	CompletedAt         sql.NullTime `db:"completed_at"`
	CountersExtracted   int          `db:"counters_extracted"`
	CountersTransformed int          `db:"counters_transformed"`
	CountersLoaded      int          `db:"counters_loaded"`
	CountersFailed      int          `db:"counters_failed"`
	ErrorMessage        string       `db:"error_message"`
}

func runRowFromDomain(run coordinatortypes.PipelineRun) runRow {
	row := runRow{
		ID:                  run.ID,
		ProviderID:          run.ProviderID,
		WindowStart:         run.WindowStart,
		WindowEnd:           run.WindowEnd,
		RunType:             string(run.RunType),
		Status:              string(run.Status),
		StartedAt:           run.StartedAt,
		CountersExtracted:   run.Counters.Extracted,
		CountersTransformed: run.Counters.Transformed,
		CountersLoaded:      run.Counters.Loaded,
		CountersFailed:      run.Counters.Failed,
		ErrorMessage:        run.ErrorMessage,
	}
	if !run.CompletedAt.IsZero() {
		row.CompletedAt = sql.NullTime{Time: run.CompletedAt, Valid: true}
	}
	return row
}

func (row runRow) toDomain() coordinatortypes.PipelineRun {
	run := coordinatortypes.PipelineRun{
		ID:          row.ID,
		ProviderID:  row.ProviderID,
		WindowStart: row.WindowStart,
		WindowEnd:   row.WindowEnd,
		RunType:     coordinatortypes.RunType(row.RunType),
		Status:      coordinatortypes.RunStatus(row.Status),
		StartedAt:   row.StartedAt,
		Counters: coordinatortypes.Counters{
			Extracted:   row.CountersExtracted,
			Transformed: row.CountersTransformed,
			Loaded:      row.CountersLoaded,
			Failed:      row.CountersFailed,
		},
		ErrorMessage: row.ErrorMessage,
	}
	if row.CompletedAt.Valid {
		run.CompletedAt = row.CompletedAt.Time
	}
	return run
}

// billingRow is billing_data's column layout, used for both insert
// binding (via sqlx named parameters) and scanning.
type billingRow struct {
	MergeKey string `db:"merge_key"`

	BilledCost     float64 `db:"billed_cost"`
	EffectiveCost  float64 `db:"effective_cost"`
	ListCost       float64 `db:"list_cost"`
	ContractedCost float64 `db:"contracted_cost"`

	BillingAccountID   string `db:"billing_account_id"`
	BillingAccountName string `db:"billing_account_name"`
	BillingAccountType string `db:"billing_account_type"`
	SubAccountID       string `db:"sub_account_id"`
	SubAccountName     string `db:"sub_account_name"`
	SubAccountType     string `db:"sub_account_type"`

	BillingPeriodStart time.Time `db:"billing_period_start"`
	BillingPeriodEnd   time.Time `db:"billing_period_end"`
	ChargePeriodStart  time.Time `db:"charge_period_start"`
	ChargePeriodEnd    time.Time `db:"charge_period_end"`

	BillingCurrency string `db:"billing_currency"`
	PricingCurrency string `db:"pricing_currency"`

	ServiceName        string `db:"service_name"`
	ServiceCategory    string `db:"service_category"`
	ServiceSubcategory string `db:"service_subcategory"`
	ProviderName       string `db:"provider_name"`
	PublisherName      string `db:"publisher_name"`
	InvoiceIssuerName  string `db:"invoice_issuer_name"`
	InvoiceIssuer      string `db:"invoice_issuer"`

	ChargeCategory    string  `db:"charge_category"`
	ChargeDescription string  `db:"charge_description"`
	ChargeClass       string  `db:"charge_class"`
	ChargeFrequency   string  `db:"charge_frequency"`
	PricingQuantity   float64 `db:"pricing_quantity"`
	PricingUnit       string  `db:"pricing_unit"`
	ConsumedQuantity  float64 `db:"consumed_quantity"`
	ConsumedUnit      string  `db:"consumed_unit"`

	ResourceID   string `db:"resource_id"`
	ResourceName string `db:"resource_name"`
	ResourceType string `db:"resource_type"`

	Region           string `db:"region"`
	AvailabilityZone string `db:"availability_zone"`

	SKUID               string  `db:"sku_id"`
	SKUPriceID          string  `db:"sku_price_id"`
	SKUMeter            string  `db:"sku_meter"`
	SKUPriceDetails     string  `db:"sku_price_details"`
	SKUDescription      string  `db:"sku_description"`
	PricingCategory     string  `db:"pricing_category"`
	ListUnitPrice       float64 `db:"list_unit_price"`
	ContractedUnitPrice float64 `db:"contracted_unit_price"`

	PricingCurrencyContractedUnitPrice float64 `db:"pricing_currency_contracted_unit_price"`
	PricingCurrencyEffectiveCost       float64 `db:"pricing_currency_effective_cost"`
	PricingCurrencyListUnitPrice       float64 `db:"pricing_currency_list_unit_price"`

	CapacityReservationID     string `db:"capacity_reservation_id"`
	CapacityReservationStatus string `db:"capacity_reservation_status"`

	CommitmentDiscountID       string  `db:"commitment_discount_id"`
	CommitmentDiscountName     string  `db:"commitment_discount_name"`
	CommitmentDiscountStatus   string  `db:"commitment_discount_status"`
	CommitmentDiscountType     string  `db:"commitment_discount_type"`
	CommitmentDiscountCategory string  `db:"commitment_discount_category"`
	CommitmentDiscountQuantity float64 `db:"commitment_discount_quantity"`
	CommitmentDiscountUnit     string  `db:"commitment_discount_unit"`

	InvoiceID string `db:"invoice_id"`

	Tags []byte `db:"tags"`

	XProviderID       string    `db:"x_provider_id"`
	XProviderData     []byte    `db:"x_provider_data"`
	XRawBillingDataID string    `db:"x_raw_billing_data_id"`
	XCreatedAt        time.Time `db:"x_created_at"`
	XUpdatedAt        time.Time `db:"x_updated_at"`

	SurrogateID string `db:"surrogate_id"`
}

// toRow converts a focus.Record into its row representation, JSON
// encoding the Tags and XProviderData maps for the jsonb columns.
func toRow(rec focus.Record) (billingRow, error) {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return billingRow{}, err
	}
	if rec.Tags == nil {
		tags = []byte("{}")
	}
	ext, err := json.Marshal(rec.XProviderData)
	if err != nil {
		return billingRow{}, err
	}
	if rec.XProviderData == nil {
		ext = []byte("{}")
	}

	return billingRow{
		MergeKey: focus.MergeKey(rec).String(),

		BilledCost:     rec.BilledCost,
		EffectiveCost:  rec.EffectiveCost,
		ListCost:       rec.ListCost,
		ContractedCost: rec.ContractedCost,

		BillingAccountID:   rec.BillingAccountID,
		BillingAccountName: rec.BillingAccountName,
		BillingAccountType: rec.BillingAccountType,
		SubAccountID:       rec.SubAccountID,
		SubAccountName:     rec.SubAccountName,
		SubAccountType:     rec.SubAccountType,

		BillingPeriodStart: rec.BillingPeriodStart,
		BillingPeriodEnd:   rec.BillingPeriodEnd,
		ChargePeriodStart:  rec.ChargePeriodStart,
		ChargePeriodEnd:    rec.ChargePeriodEnd,

		BillingCurrency: rec.BillingCurrency,
		PricingCurrency: rec.PricingCurrency,

		ServiceName:        rec.ServiceName,
		ServiceCategory:    string(rec.ServiceCategory),
		ServiceSubcategory: rec.ServiceSubcategory,
		ProviderName:       rec.ProviderName,
		PublisherName:      rec.PublisherName,
		InvoiceIssuerName:  rec.InvoiceIssuerName,
		InvoiceIssuer:      rec.InvoiceIssuer,

		ChargeCategory:    string(rec.ChargeCategory),
		ChargeDescription: rec.ChargeDescription,
		ChargeClass:       string(rec.ChargeClass),
		ChargeFrequency:   string(rec.ChargeFrequency),
		PricingQuantity:   rec.PricingQuantity,
		PricingUnit:       rec.PricingUnit,
		ConsumedQuantity:  rec.ConsumedQuantity,
		ConsumedUnit:      rec.ConsumedUnit,

		ResourceID:   rec.ResourceID,
		ResourceName: rec.ResourceName,
		ResourceType: rec.ResourceType,

		Region:           rec.Region,
		AvailabilityZone: rec.AvailabilityZone,

		SKUID:               rec.SKUID,
		SKUPriceID:          rec.SKUPriceID,
		SKUMeter:            rec.SKUMeter,
		SKUPriceDetails:     rec.SKUPriceDetails,
		SKUDescription:      rec.SKUDescription,
		PricingCategory:     rec.PricingCategory,
		ListUnitPrice:       rec.ListUnitPrice,
		ContractedUnitPrice: rec.ContractedUnitPrice,

		PricingCurrencyContractedUnitPrice: rec.PricingCurrencyContractedUnitPrice,
		PricingCurrencyEffectiveCost:       rec.PricingCurrencyEffectiveCost,
		PricingCurrencyListUnitPrice:       rec.PricingCurrencyListUnitPrice,

		CapacityReservationID:     rec.CapacityReservationID,
		CapacityReservationStatus: rec.CapacityReservationStatus,

		CommitmentDiscountID:       rec.CommitmentDiscountID,
		CommitmentDiscountName:     rec.CommitmentDiscountName,
		CommitmentDiscountStatus:   string(rec.CommitmentDiscountStatus),
		CommitmentDiscountType:     rec.CommitmentDiscountType,
		CommitmentDiscountCategory: rec.CommitmentDiscountCategory,
		CommitmentDiscountQuantity: rec.CommitmentDiscountQuantity,
		CommitmentDiscountUnit:     rec.CommitmentDiscountUnit,

		InvoiceID: rec.InvoiceID,

		Tags: tags,

		XProviderID:       rec.XProviderID,
		XProviderData:     ext,
		XRawBillingDataID: rec.XRawBillingDataID,
		XCreatedAt:        rec.XCreatedAt,
		XUpdatedAt:        rec.XUpdatedAt,

		SurrogateID: rec.SurrogateID,
	}, nil
}
