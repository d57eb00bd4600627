package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// persistTimeout bounds a single snapshot write.
const persistTimeout = 10 * time.Second

// Ledger is the authoritative, ordered set of un-exported access records for
// one session.  Callers hold an explicit *Ledger; there is no shared global.
//
// Every mutation writes a full snapshot to the store while still holding the
// lock, so persisted snapshots are applied in mutation order.  A failed
// write never undoes the in-memory mutation: the error is returned (wrapping
// ErrStorageWrite) for the caller to report.
type Ledger struct {
	mu      sync.Mutex
	records []types.AccessRecord
	store   store.RecordStore
	logger  *zap.Logger
}

// OpenLedger rehydrates the ledger from st.  An unreadable snapshot never
// blocks startup: the failure is logged and the ledger starts empty.
func OpenLedger(ctx context.Context, st store.RecordStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{store: st, logger: logger}

	recs, err := st.Load(ctx)
	switch {
	case errors.Is(err, store.ErrSnapshotCorrupt):
		logger.Warn("persisted ledger is corrupt, starting empty", zap.Error(err))
	case err != nil:
		logger.Error("persisted ledger could not be read, starting empty", zap.Error(err))
	default:
		l.records = recs
		if len(recs) > 0 {
			logger.Info("ledger restored", zap.Int("pending", len(recs)))
		}
	}
	return l
}

// Append adds rec at the end of the ledger.  No field validation happens
// here; the session validates drafts before they become records.
func (l *Ledger) Append(ctx context.Context, rec types.AccessRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	return l.persistLocked(ctx)
}

// Clear drops every record.  Irreversible.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = nil
	return l.persistLocked(ctx)
}

// Discard removes exactly the records of snap (matched by id) and keeps
// anything appended after snap was taken.
func (l *Ledger) Discard(ctx context.Context, snap []types.AccessRecord) (int, error) {
	if len(snap) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(snap))
	for _, r := range snap {
		drop[r.ID] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]types.AccessRecord, 0, len(l.records))
	for _, r := range l.records {
		if _, ok := drop[r.ID]; ok {
			continue
		}
		kept = append(kept, r)
	}
	removed := len(l.records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if len(kept) == 0 {
		kept = nil
	}
	l.records = kept
	return removed, l.persistLocked(ctx)
}

// Snapshot returns a copy of the current records in append order.
func (l *Ledger) Snapshot() []types.AccessRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.AccessRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// OldestPending returns the timestamp of the first record still waiting for
// export.
func (l *Ledger) OldestPending() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return time.Time{}, false
	}
	return l.records[0].Timestamp, true
}

// Latest returns the timestamp of the newest record.
func (l *Ledger) Latest() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return time.Time{}, false
	}
	return l.records[len(l.records)-1].Timestamp, true
}

// persistLocked writes the snapshot even when ctx is already cancelled; a
// dropped write would bring exported or cleared records back on restart.
func (l *Ledger) persistLocked(ctx context.Context) error {
	snap := make([]types.AccessRecord, len(l.records))
	copy(snap, l.records)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := l.store.Save(ctx, snap); err != nil {
		l.logger.Warn("ledger snapshot not persisted",
			zap.Int("records", len(snap)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}
