package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/gatelog/internal/db"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// RecordStore keeps the ledger snapshot in a single ledger_snapshots row.
// Reads go straight to the pool; writes are queued on the shared Worker.
type RecordStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
	key    string
}

func NewRecordStore(db *sql.DB, writer *dbpkg.Worker, key string) *RecordStore {
	if key == "" {
		key = store.DefaultLedgerKey
	}
	return &RecordStore{db: db, writer: writer, key: key}
}

func (s *RecordStore) Load(ctx context.Context) ([]types.AccessRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
SELECT payload FROM ledger_snapshots WHERE ledger_key = ?;
`, s.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Load query: %w", err)
	}
	recs, err := store.DecodeSnapshot(payload)
	if errors.Is(err, store.ErrSnapshotCorrupt) {
		if qerr := s.upsert(ctx, store.CorruptKey(s.key), payload, 0); qerr != nil {
			return nil, fmt.Errorf("%w (copy aside failed: %v)", err, qerr)
		}
	}
	return recs, err
}

func (s *RecordStore) Save(ctx context.Context, records []types.AccessRecord) error {
	payload, err := store.EncodeSnapshot(records)
	if err != nil {
		return err
	}
	return s.upsert(ctx, s.key, payload, len(records))
}

func (s *RecordStore) upsert(ctx context.Context, key string, payload []byte, count int) error {
	savedMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_snapshots(ledger_key, payload, record_count, saved_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(ledger_key) DO UPDATE SET
  payload      = excluded.payload,
  record_count = excluded.record_count,
  saved_at_ms  = excluded.saved_at_ms;
`, key, payload, count, savedMs); err != nil {
			return fmt.Errorf("Save upsert: %w", err)
		}
		return nil
	})
}
