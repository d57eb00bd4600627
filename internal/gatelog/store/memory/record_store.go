package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// RecordStore keeps the encoded ledger snapshot in process memory.  It goes
// through the same codec as the durable backends so tests exercise the real
// serialization.  Intended for tests and dev environments.
type RecordStore struct {
	mu       sync.Mutex
	raw      []byte
	present  bool
	saves    int
	writeErr error
	corrupt  []byte
}

func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

func (s *RecordStore) Load(_ context.Context) ([]types.AccessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return nil, nil
	}
	recs, err := store.DecodeSnapshot(s.raw)
	if errors.Is(err, store.ErrSnapshotCorrupt) {
		s.corrupt = append([]byte(nil), s.raw...)
	}
	return recs, err
}

func (s *RecordStore) Save(_ context.Context, records []types.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	b, err := store.EncodeSnapshot(records)
	if err != nil {
		return err
	}
	s.raw = b
	s.present = true
	s.saves++
	return nil
}

// Put replaces the persisted bytes verbatim.  Test-only helper, used to
// simulate corrupt state left behind by an older build.
func (s *RecordStore) Put(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = append([]byte(nil), raw...)
	s.present = true
}

// Raw returns a copy of the persisted bytes and whether anything was saved.
func (s *RecordStore) Raw() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.raw...), s.present
}

// Corrupt returns the last undecodable snapshot Load copied aside.
func (s *RecordStore) Corrupt() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.corrupt...), s.corrupt != nil
}

// FailWrites makes every subsequent Save return err.  Pass nil to recover.
func (s *RecordStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Saves reports how many snapshots were written successfully.
func (s *RecordStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
