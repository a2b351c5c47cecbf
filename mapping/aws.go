package mapping

// ExtractAWSRegionFromAZ derives the AWS region from a standard
// availability zone string (e.g. "us-east-1a" -> "us-east-1"). Ported
// unchanged from sdk/go/pluginsdk/mapping/aws.go — the string algorithm
// does not depend on whether the AZ came from a Pulumi resource
// property or a raw CUR line item's lineItem/AvailabilityZone column.
//
// Does not handle extended zone formats such as Local Zones
// (e.g. "us-west-2-lax-1a") or Wavelength Zones. Returns the input
// unchanged if it has no trailing lowercase-letter suffix.
func ExtractAWSRegionFromAZ(availabilityZone string) string {
	if availabilityZone == "" {
		return ""
	}
	length := len(availabilityZone)
	if length == 1 {
		return ""
	}
	lastChar := availabilityZone[length-1]
	if lastChar >= 'a' && lastChar <= 'z' {
		return availabilityZone[:length-1]
	}
	return availabilityZone
}

// ExtractAWSSKU pulls a SKU-equivalent value out of a raw legacy CUR
// line item, trying the instance-type family of columns in priority
// order: product/instanceType, product/instanceTypeFamily,
// product/volumeType, then lineItem/UsageType as a generic fallback.
func ExtractAWSSKU(raw map[string]any) string {
	return extractFromKeys(raw, awsKeyInstanceType, awsKeyInstanceClass, awsKeyVolumeType, awsKeyUsageType)
}

// ExtractAWSRegion pulls a region out of a raw legacy CUR line item,
// preferring the explicit product/region column and falling back to
// deriving one from lineItem/AvailabilityZone.
func ExtractAWSRegion(raw map[string]any) string {
	if raw == nil {
		return ""
	}
	if region := extractFromKeys(raw, awsKeyRegion); region != "" {
		return region
	}
	if az := extractFromKeys(raw, awsKeyAvailabilityZone); az != "" {
		return ExtractAWSRegionFromAZ(az)
	}
	return ""
}
