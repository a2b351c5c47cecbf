package mapping

// Mapper is the mandatory hook set every provider mapper implements.
// Raw is the provider's native record shape, typically decoded from a
// RawBlob payload into map[string]any by the caller before Run is
// invoked.
type Mapper interface {
	// IsValidRecord is a cheap structural check; returning false skips
	// the record silently (it is not an error).
	IsValidRecord(raw map[string]any) bool

	// SplitRecord returns one or more logical records derived from raw.
	// The default behavior (a single-element slice containing raw
	// unchanged) is what DefaultSplit provides for mappers that never
	// split.
	SplitRecord(raw map[string]any) []map[string]any

	Costs(raw map[string]any) (CostInfo, error)
	Account(raw map[string]any) (AccountInfo, error)
	TimePeriod(raw map[string]any) (TimeInfo, error)
	Service(raw map[string]any) (ServiceInfo, error)
	Charge(raw map[string]any) (ChargeInfo, error)

	// SurrogateID returns the stable identity of raw within this
	// mapper's output. It must be deterministic: replaying the same raw
	// record (after SplitRecord) must yield the same SurrogateID, since
	// it is part of the merge-key tuple (focus.MergeKey). This departs
	// from a per-call random id — see DESIGN.md.
	SurrogateID(raw map[string]any) (string, error)
}

// ResourceMapper is an optional capability interface.
type ResourceMapper interface {
	Resource(raw map[string]any) (ResourceInfo, error)
}

// LocationMapper is an optional capability interface.
type LocationMapper interface {
	Location(raw map[string]any) (LocationInfo, error)
}

// SKUMapper is an optional capability interface.
type SKUMapper interface {
	SKU(raw map[string]any) (SKUInfo, error)
}

// CommitmentMapper is an optional capability interface.
type CommitmentMapper interface {
	Commitment(raw map[string]any) (CommitmentInfo, error)
}

// UsageMapper is an optional capability interface.
type UsageMapper interface {
	Usage(raw map[string]any) (UsageInfo, error)
}

// TagMapper is an optional capability interface.
type TagMapper interface {
	Tags(raw map[string]any) (map[string]string, error)
}

// ProviderExtensionsMapper is an optional capability interface for
// provider-specific passthrough data carried in x_provider_data.
type ProviderExtensionsMapper interface {
	ProviderExtensions(raw map[string]any) (map[string]any, error)
}

// DefaultSplit is the identity split: one input record maps to one
// output record. Mappers that never split embed it or call it directly
// from their SplitRecord implementation.
func DefaultSplit(raw map[string]any) []map[string]any {
	return []map[string]any{raw}
}
