package store

import (
	"context"
	"errors"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// DefaultLedgerKey is the key the ledger snapshot lives under in every
// backend.
const DefaultLedgerKey = "uag_records"

// ErrSnapshotCorrupt is returned by Load when the persisted entry exists but
// does not decode as a sequence of access records.
var ErrSnapshotCorrupt = errors.New("ledger snapshot is corrupt")

// CorruptKey is where a backend copies an undecodable snapshot before the
// ledger overwrites the original.  Only the most recent copy is kept.
func CorruptKey(key string) string {
	return key + ".corrupt"
}

// RecordStore persists the whole ledger as a single snapshot.  Save always
// overwrites; there is no incremental diffing.
//
// Load returns (nil, nil) when nothing has been persisted yet.  When the
// entry does not decode, Load copies the raw bytes to CorruptKey(key) and
// returns an error wrapping ErrSnapshotCorrupt.
type RecordStore interface {
	Load(ctx context.Context) ([]types.AccessRecord, error)
	Save(ctx context.Context, records []types.AccessRecord) error
}
