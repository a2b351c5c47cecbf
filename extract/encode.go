package extract

import (
	"encoding/json"

	"github.com/rshade/billingfocus/registry"
)

// encodeBatch serializes a RawBatch's records and metadata to the
// on-disk/in-blob representation stored in store.RawBlob.Payload.
func encodeBatch(batch registry.RawBatch) ([]byte, error) {
	return json.Marshal(struct {
		SourceName string           `json:"source_name"`
		Records    []map[string]any `json:"records"`
		Metadata   map[string]any   `json:"metadata,omitempty"`
	}{
		SourceName: batch.SourceName,
		Records:    batch.Records,
		Metadata:   batch.Metadata,
	})
}

// DecodeBatch is the inverse of encodeBatch, used when replaying a
// RawBlob's payload back through the mapper stage.
func DecodeBatch(payload []byte) (registry.RawBatch, error) {
	var decoded struct {
		SourceName string           `json:"source_name"`
		Records    []map[string]any `json:"records"`
		Metadata   map[string]any   `json:"metadata,omitempty"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return registry.RawBatch{}, err
	}
	return registry.RawBatch{
		SourceName: decoded.SourceName,
		Records:    decoded.Records,
		Metadata:   decoded.Metadata,
	}, nil
}
