// Package redis stores the ledger snapshot under a single Redis string key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// Client is the subset of *goredis.Client the store needs.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

type RecordStore struct {
	client Client
	key    string
}

func NewRecordStore(client Client, key string) *RecordStore {
	if key == "" {
		key = store.DefaultLedgerKey
	}
	return &RecordStore{client: client, key: key}
}

func (s *RecordStore) Load(ctx context.Context) ([]types.AccessRecord, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	recs, err := store.DecodeSnapshot(b)
	if errors.Is(err, store.ErrSnapshotCorrupt) {
		aside := store.CorruptKey(s.key)
		if qerr := s.client.Set(ctx, aside, b, 0).Err(); qerr != nil {
			return nil, fmt.Errorf("%w (copy to %s failed: %v)", err, aside, qerr)
		}
	}
	return recs, err
}

// Save overwrites the key with no expiry: un-exported records must never
// age out on their own.
func (s *RecordStore) Save(ctx context.Context, records []types.AccessRecord) error {
	b, err := store.EncodeSnapshot(records)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
