package mapping

import (
	"fmt"
	"time"

	"github.com/rshade/billingfocus/currency"
	"github.com/rshade/billingfocus/focus"
	"github.com/rshade/billingfocus/pipelineerr"
)

// Options configures Run beyond what a Mapper's hooks provide.
type Options struct {
	// ProviderID is written to focus.Record.XProviderID.
	ProviderID string
	// RawBillingDataID is written to focus.Record.XRawBillingDataID.
	RawBillingDataID string
	// StrictValidation rejects a record once more than three field
	// violations are detected during enum correction and defaulting.
	StrictValidation bool
	// Now is injectable for deterministic tests; defaults to time.Now
	// if zero.
	Now func() time.Time
}

// Warning is a non-fatal correction Run made while building a record.
type Warning struct {
	Field   string
	Message string
}

// Result is one split record's mapping outcome.
type Result struct {
	Record   focus.Record
	Warnings []Warning
}

// Run executes the standardized mapping workflow against raw: validate,
// split, invoke mandatory hooks and any optional hooks m implements,
// apply defaults, correct invalid enums (warning, not error), and
// enforce strict-mode rejection. It returns one Result per split
// record that was not skipped or rejected.
func Run(m Mapper, raw map[string]any, opts Options) ([]Result, error) {
	if !m.IsValidRecord(raw) {
		return nil, nil
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	splits := m.SplitRecord(raw)
	results := make([]Result, 0, len(splits))

	for _, split := range splits {
		result, skip, err := buildOne(m, split, opts, now)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func buildOne(m Mapper, raw map[string]any, opts Options, now func() time.Time) (Result, bool, error) {
	costs, err := m.Costs(raw)
	if err != nil {
		return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "costs hook failed", err)
	}
	account, err := m.Account(raw)
	if err != nil {
		return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "account hook failed", err)
	}
	period, err := m.TimePeriod(raw)
	if err != nil {
		return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "time period hook failed", err)
	}
	service, err := m.Service(raw)
	if err != nil {
		return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "service hook failed", err)
	}
	charge, err := m.Charge(raw)
	if err != nil {
		return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "charge hook failed", err)
	}
	surrogateID, err := m.SurrogateID(raw)
	if err != nil {
		return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "surrogate id hook failed", err)
	}

	var warnings []Warning

	rec := focus.Record{
		BilledCost:                   costs.BilledCost,
		EffectiveCost:                costs.EffectiveCost,
		ListCost:                     costs.ListCost,
		ContractedCost:               costs.ContractedCost,
		BillingCurrency:              orDefault(costs.Currency, "USD"),
		PricingCurrency:              costs.PricingCurrency,
		PricingCurrencyEffectiveCost: costs.PricingCurrencyEffectiveCost,
		BillingAccountID:             account.BillingAccountID,
		BillingAccountName:           account.BillingAccountName,
		BillingAccountType:           account.BillingAccountType,
		SubAccountID:                 account.SubAccountID,
		SubAccountName:               account.SubAccountName,
		SubAccountType:               account.SubAccountType,
		ChargePeriodStart:            period.ChargePeriodStart,
		ChargePeriodEnd:              period.ChargePeriodEnd,
		ServiceName:                  service.ServiceName,
		ServiceCategory:              focus.ServiceCategory(service.ServiceCategory),
		ServiceSubcategory:           service.ServiceSubcategory,
		ProviderName:                 service.ProviderName,
		PublisherName:                service.PublisherName,
		InvoiceIssuerName:            service.InvoiceIssuerName,
		InvoiceID:                    service.InvoiceID,
		InvoiceIssuer:                service.InvoiceIssuer,
		ChargeCategory:               focus.ChargeCategory(charge.ChargeCategory),
		ChargeDescription:            charge.ChargeDescription,
		ChargeClass:                  focus.ChargeClass(charge.ChargeClass),
		ChargeFrequency:              focus.ChargeFrequency(charge.ChargeFrequency),
		PricingQuantity:              charge.PricingQuantity,
		PricingUnit:                  charge.PricingUnit,
		XProviderID:                  opts.ProviderID,
		XRawBillingDataID:            opts.RawBillingDataID,
		XCreatedAt:                   now(),
		XUpdatedAt:                   now(),
		SurrogateID:                  surrogateID,
	}

	applyBillingPeriodDefault(&rec)

	if rm, ok := m.(ResourceMapper); ok {
		info, err := rm.Resource(raw)
		if err != nil {
			return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "resource hook failed", err)
		}
		rec.ResourceID, rec.ResourceName, rec.ResourceType = info.ResourceID, info.ResourceName, info.ResourceType
	}
	if lm, ok := m.(LocationMapper); ok {
		info, err := lm.Location(raw)
		if err != nil {
			return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "location hook failed", err)
		}
		rec.Region, rec.AvailabilityZone = info.RegionName, info.AvailabilityZone
		if rec.Region == "" {
			rec.Region = info.RegionID
		}
	}
	if sm, ok := m.(SKUMapper); ok {
		info, err := sm.SKU(raw)
		if err != nil {
			return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "sku hook failed", err)
		}
		rec.SKUID, rec.SKUPriceID, rec.SKUMeter, rec.SKUPriceDetails = info.SKUID, info.SKUPriceID, info.SKUMeter, info.SKUPriceDetails
		rec.SKUDescription = info.SKUDescription
		rec.ListUnitPrice, rec.ContractedUnitPrice = info.ListUnitPrice, info.ContractedUnitPrice
		rec.PricingCurrencyListUnitPrice = info.PricingCurrencyListUnitPrice
		rec.PricingCurrencyContractedUnitPrice = info.PricingCurrencyContractedUnitPrice
	}
	if cm, ok := m.(CommitmentMapper); ok {
		info, err := cm.Commitment(raw)
		if err != nil {
			return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "commitment hook failed", err)
		}
		rec.CommitmentDiscountID = info.CommitmentDiscountID
		rec.CommitmentDiscountType = info.CommitmentDiscountType
		rec.CommitmentDiscountCategory = info.CommitmentDiscountCategory
		rec.CommitmentDiscountName = info.CommitmentDiscountName
		rec.CommitmentDiscountStatus = focus.CommitmentDiscountStatus(info.CommitmentDiscountStatus)
		rec.CommitmentDiscountQuantity = info.CommitmentDiscountQuantity
		rec.CommitmentDiscountUnit = info.CommitmentDiscountUnit
	}
	if um, ok := m.(UsageMapper); ok {
		info, err := um.Usage(raw)
		if err != nil {
			return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "usage hook failed", err)
		}
		rec.ConsumedQuantity, rec.ConsumedUnit = info.ConsumedQuantity, info.ConsumedUnit
	}
	if tm, ok := m.(TagMapper); ok {
		tags, err := tm.Tags(raw)
		if err != nil {
			return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "tags hook failed", err)
		}
		rec.Tags = tags
	}
	if pm, ok := m.(ProviderExtensionsMapper); ok {
		data, err := pm.ProviderExtensions(raw)
		if err != nil {
			return Result{}, false, pipelineerr.Wrap(pipelineerr.RecordInvalid, "mapping", "provider extensions hook failed", err)
		}
		rec.XProviderData = data
	}

	roundCosts(&rec)
	correctEnums(&rec, &warnings)

	if opts.StrictValidation && len(warnings) > 3 {
		return Result{}, true, nil
	}

	return Result{Record: rec, Warnings: warnings}, false, nil
}

// roundCosts normalizes cost fields to their currency's minor-unit
// precision. Mappers read raw provider amounts that often carry more
// decimal places than the billing/pricing currency defines.
func roundCosts(rec *focus.Record) {
	rec.BilledCost = currency.RoundToMinorUnits(rec.BilledCost, rec.BillingCurrency)
	rec.EffectiveCost = currency.RoundToMinorUnits(rec.EffectiveCost, rec.BillingCurrency)
	rec.ListCost = currency.RoundToMinorUnits(rec.ListCost, rec.BillingCurrency)
	rec.ContractedCost = currency.RoundToMinorUnits(rec.ContractedCost, rec.BillingCurrency)
	rec.ListUnitPrice = currency.RoundToMinorUnits(rec.ListUnitPrice, rec.BillingCurrency)
	rec.ContractedUnitPrice = currency.RoundToMinorUnits(rec.ContractedUnitPrice, rec.BillingCurrency)

	if rec.PricingCurrency == "" {
		return
	}
	rec.PricingCurrencyEffectiveCost = currency.RoundToMinorUnits(rec.PricingCurrencyEffectiveCost, rec.PricingCurrency)
	rec.PricingCurrencyListUnitPrice = currency.RoundToMinorUnits(rec.PricingCurrencyListUnitPrice, rec.PricingCurrency)
	rec.PricingCurrencyContractedUnitPrice = currency.RoundToMinorUnits(rec.PricingCurrencyContractedUnitPrice, rec.PricingCurrency)
}

func applyBillingPeriodDefault(rec *focus.Record) {
	if rec.BillingPeriodStart.IsZero() || rec.BillingPeriodEnd.IsZero() {
		start := rec.ChargePeriodStart
		rec.BillingPeriodStart = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		rec.BillingPeriodEnd = rec.BillingPeriodStart.AddDate(0, 1, 0)
	}
}

func correctEnums(rec *focus.Record, warnings *[]Warning) {
	if !focus.IsValidServiceCategory(rec.ServiceCategory) {
		*warnings = append(*warnings, Warning{"service_category", fmt.Sprintf("invalid service_category %q corrected to Other", rec.ServiceCategory)})
		rec.ServiceCategory = focus.ServiceCategoryOther
	}
	if !focus.IsValidChargeCategory(rec.ChargeCategory) {
		*warnings = append(*warnings, Warning{"charge_category", fmt.Sprintf("invalid charge_category %q corrected to Usage", rec.ChargeCategory)})
		rec.ChargeCategory = focus.ChargeCategoryUsage
	}
	if !focus.IsValidChargeClass(rec.ChargeClass) {
		*warnings = append(*warnings, Warning{"charge_class", fmt.Sprintf("invalid charge_class %q corrected to null", rec.ChargeClass)})
		rec.ChargeClass = focus.ChargeClassNone
	}
	if !focus.IsValidChargeFrequency(rec.ChargeFrequency) {
		*warnings = append(*warnings, Warning{"charge_frequency", fmt.Sprintf("invalid charge_frequency %q corrected to null", rec.ChargeFrequency)})
		rec.ChargeFrequency = focus.ChargeFrequencyNone
	}
	if !focus.IsValidCommitmentDiscountStatus(rec.CommitmentDiscountStatus) {
		*warnings = append(*warnings, Warning{"commitment_discount_status", fmt.Sprintf("invalid commitment_discount_status %q corrected to null", rec.CommitmentDiscountStatus)})
		rec.CommitmentDiscountStatus = focus.CommitmentDiscountStatusNone
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
