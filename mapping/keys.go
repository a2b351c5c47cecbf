package mapping

// Legacy per-provider raw column names consulted by extractFromKeys, in
// priority order, when a raw billing record has not already been
// pre-shaped into FOCUS column names by the provider's export pipeline
// (AWS's legacy Cost and Usage Report, GCP's detailed billing export
// before the FOCUS migration). Adapted from
// sdk/go/pluginsdk/mapping's Pulumi-resource-property key tables for
// raw billing line items instead of resource property bags.
const (
	awsKeyInstanceType     = "product/instanceType"
	awsKeyInstanceClass    = "product/instanceTypeFamily"
	awsKeyVolumeType       = "product/volumeType"
	awsKeyUsageType        = "lineItem/UsageType"
	awsKeyRegion           = "product/region"
	awsKeyAvailabilityZone = "lineItem/AvailabilityZone"
)

const (
	gcpKeyMachineType = "sku.description"
	gcpKeyRegion       = "location.region"
	gcpKeyZone         = "location.zone"
)
