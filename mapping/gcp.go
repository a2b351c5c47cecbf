package mapping

import "strings"

// gcpRegions lists known GCP regions, used to validate a zone-derived
// region guess. Ported from sdk/go/pluginsdk/mapping/gcp.go.
//
//nolint:gochecknoglobals // read-only reference data
var gcpRegions = []string{
	"asia-east1", "asia-east2", "asia-northeast1", "asia-northeast2", "asia-northeast3",
	"asia-south1", "asia-south2", "asia-southeast1", "asia-southeast2",
	"australia-southeast1", "australia-southeast2",
	"europe-central2", "europe-north1", "europe-southwest1", "europe-west1", "europe-west2",
	"europe-west3", "europe-west4", "europe-west6", "europe-west8", "europe-west9", "europe-west10", "europe-west12",
	"me-central1", "me-central2", "me-west1",
	"northamerica-northeast1", "northamerica-northeast2",
	"us-central1", "us-east1", "us-east4", "us-east5", "us-south1", "us-west1", "us-west2", "us-west3", "us-west4",
	"southamerica-east1", "southamerica-west1",
}

// IsValidGCPRegion reports whether region is a known GCP region.
func IsValidGCPRegion(region string) bool {
	if region == "" {
		return false
	}
	for _, r := range gcpRegions {
		if r == region {
			return true
		}
	}
	return false
}

// ExtractGCPRegionFromZone derives a region from a zone string (e.g.
// "us-central1-a" -> "us-central1"), validating the result against the
// known region list.
func ExtractGCPRegionFromZone(zone string) string {
	if zone == "" {
		return ""
	}
	lastIdx := strings.LastIndex(zone, "-")
	if lastIdx <= 0 {
		return ""
	}
	region := zone[:lastIdx]
	if !IsValidGCPRegion(region) {
		return ""
	}
	return region
}

// ExtractGCPSKU pulls a SKU-equivalent description out of a raw
// BigQuery billing export row, via the sku.description column.
func ExtractGCPSKU(raw map[string]any) string {
	return extractFromKeys(raw, gcpKeyMachineType)
}

// ExtractGCPRegion pulls a region out of a raw BigQuery billing export
// row, preferring location.region and falling back to deriving one
// from location.zone.
func ExtractGCPRegion(raw map[string]any) string {
	if raw == nil {
		return ""
	}
	if region := extractFromKeys(raw, gcpKeyRegion); region != "" {
		return region
	}
	if zone := extractFromKeys(raw, gcpKeyZone); zone != "" {
		return ExtractGCPRegionFromZone(zone)
	}
	return ""
}
