package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// EncodeSnapshot serializes records as a JSON array.  A nil slice encodes
// as "[]" so an empty ledger is distinguishable from a missing entry.
func EncodeSnapshot(records []types.AccessRecord) ([]byte, error) {
	if records == nil {
		records = []types.AccessRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a persisted snapshot.  Anything that is not an array
// of well-formed records yields an error wrapping ErrSnapshotCorrupt.
func DecodeSnapshot(data []byte) ([]types.AccessRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var records []types.AccessRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}

	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrSnapshotCorrupt, i)
		}
		if r.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: record %s has no timestamp", ErrSnapshotCorrupt, r.ID)
		}
		if !r.Type.Valid() {
			return nil, fmt.Errorf("%w: record %s has unknown type %q", ErrSnapshotCorrupt, r.ID, r.Type)
		}
	}
	return records, nil
}
