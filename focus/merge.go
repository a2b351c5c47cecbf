package focus

import "fmt"

// Key is the idempotence identity of a Record: replays of the same raw
// input must produce a Record whose Key is identical to the prior run's,
// so the loader can upsert rather than duplicate.
type Key struct {
	XProviderID       string
	ChargePeriodStart int64
	ChargePeriodEnd   int64
	SKUID             string
	SurrogateID       string
}

// MergeKey returns r's idempotence identity per the merge-key tuple
// (x_provider_id, charge_period_start, charge_period_end, sku_id,
// surrogate id).
func MergeKey(r Record) Key {
	return Key{
		XProviderID:       r.XProviderID,
		ChargePeriodStart: r.ChargePeriodStart.Unix(),
		ChargePeriodEnd:   r.ChargePeriodEnd.Unix(),
		SKUID:             r.SKUID,
		SurrogateID:       r.SurrogateID,
	}
}

// String renders the key as a stable string suitable for use as a map
// key or a database merge-key column.
func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%d|%s|%s", k.XProviderID, k.ChargePeriodStart, k.ChargePeriodEnd, k.SKUID, k.SurrogateID)
}
