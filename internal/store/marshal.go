package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/pipeline"
)

// marshalConfig converts a config snapshot to canonical JSON TEXT, so equal
// configs are stored byte for byte the same.
func marshalConfig(s pipeline.Snapshot) (string, error) {
	data, err := ir.MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// marshalResolved stores the resolved pass order as a JSON array.
// An empty pipeline is stored as [] rather than null.
func marshalResolved(ids []catalog.PassID) (string, error) {
	if ids == nil {
		ids = []catalog.PassID{}
	}
	data, err := ir.MarshalCanonical(ids)
	if err != nil {
		return "", fmt.Errorf("marshal resolved: %w", err)
	}
	return string(data), nil
}

func unmarshalConfig(data string) (pipeline.Snapshot, error) {
	var s pipeline.Snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return pipeline.Snapshot{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return s, nil
}

func unmarshalResolved(data string) ([]catalog.PassID, error) {
	ids := []catalog.PassID{}
	if data == "" || data == "[]" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal resolved: %w", err)
	}
	return ids, nil
}
