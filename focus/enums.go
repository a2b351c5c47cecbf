package focus

// ServiceCategory is the FOCUS 1.2 service category enum (spec section 2.6).
type ServiceCategory string

const (
	ServiceCategoryAIAndMachineLearning      ServiceCategory = "AI and Machine Learning"
	ServiceCategoryAnalytics                 ServiceCategory = "Analytics"
	ServiceCategoryCompute                   ServiceCategory = "Compute"
	ServiceCategoryDatabases                 ServiceCategory = "Databases"
	ServiceCategoryDeveloperTools            ServiceCategory = "Developer Tools"
	ServiceCategoryManagementAndGovernance    ServiceCategory = "Management and Governance"
	ServiceCategoryNetworking                ServiceCategory = "Networking"
	ServiceCategorySecurityIdentityCompliance ServiceCategory = "Security/Identity/Compliance"
	ServiceCategoryStorage                   ServiceCategory = "Storage"
	ServiceCategoryOther                     ServiceCategory = "Other"
)

//nolint:gochecknoglobals // zero-allocation validation table, mirrors currency.allCurrencies
var allServiceCategories = []ServiceCategory{
	ServiceCategoryAIAndMachineLearning,
	ServiceCategoryAnalytics,
	ServiceCategoryCompute,
	ServiceCategoryDatabases,
	ServiceCategoryDeveloperTools,
	ServiceCategoryManagementAndGovernance,
	ServiceCategoryNetworking,
	ServiceCategorySecurityIdentityCompliance,
	ServiceCategoryStorage,
	ServiceCategoryOther,
}

// IsValidServiceCategory reports whether s belongs to the FOCUS 1.2 closed set.
func IsValidServiceCategory(s ServiceCategory) bool {
	for _, v := range allServiceCategories {
		if v == s {
			return true
		}
	}
	return false
}

// ChargeCategory is the FOCUS 1.2 charge category enum (spec section 2.4).
type ChargeCategory string

const (
	ChargeCategoryUsage      ChargeCategory = "Usage"
	ChargeCategoryPurchase   ChargeCategory = "Purchase"
	ChargeCategoryTax        ChargeCategory = "Tax"
	ChargeCategoryCredit     ChargeCategory = "Credit"
	ChargeCategoryAdjustment ChargeCategory = "Adjustment"
)

//nolint:gochecknoglobals // zero-allocation validation table
var allChargeCategories = []ChargeCategory{
	ChargeCategoryUsage, ChargeCategoryPurchase, ChargeCategoryTax, ChargeCategoryCredit, ChargeCategoryAdjustment,
}

// IsValidChargeCategory reports whether c belongs to the FOCUS 1.2 closed set.
func IsValidChargeCategory(c ChargeCategory) bool {
	for _, v := range allChargeCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ChargeClass is the FOCUS 1.2 charge class enum. The zero value means "null".
type ChargeClass string

const (
	ChargeClassNone       ChargeClass = ""
	ChargeClassCorrection ChargeClass = "Correction"
)

// IsValidChargeClass reports whether c is null or Correction.
func IsValidChargeClass(c ChargeClass) bool {
	return c == ChargeClassNone || c == ChargeClassCorrection
}

// ChargeFrequency is the FOCUS 1.2 charge frequency enum. The zero value means "null".
type ChargeFrequency string

const (
	ChargeFrequencyNone       ChargeFrequency = ""
	ChargeFrequencyOneTime    ChargeFrequency = "One-Time"
	ChargeFrequencyRecurring  ChargeFrequency = "Recurring"
	ChargeFrequencyUsageBased ChargeFrequency = "Usage-Based"
)

// IsValidChargeFrequency reports whether f belongs to the FOCUS 1.2 closed set (null allowed).
func IsValidChargeFrequency(f ChargeFrequency) bool {
	switch f {
	case ChargeFrequencyNone, ChargeFrequencyOneTime, ChargeFrequencyRecurring, ChargeFrequencyUsageBased:
		return true
	default:
		return false
	}
}

// CommitmentDiscountStatus is the FOCUS 1.2 commitment discount status enum.
// The zero value means "null".
type CommitmentDiscountStatus string

const (
	CommitmentDiscountStatusNone   CommitmentDiscountStatus = ""
	CommitmentDiscountStatusUsed   CommitmentDiscountStatus = "Used"
	CommitmentDiscountStatusUnused CommitmentDiscountStatus = "Unused"
)

// IsValidCommitmentDiscountStatus reports whether s belongs to the closed set (null allowed).
func IsValidCommitmentDiscountStatus(s CommitmentDiscountStatus) bool {
	switch s {
	case CommitmentDiscountStatusNone, CommitmentDiscountStatusUsed, CommitmentDiscountStatusUnused:
		return true
	default:
		return false
	}
}
