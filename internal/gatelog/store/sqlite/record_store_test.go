package sqlite_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	sqlitestore "github.com/BrandonDHaskell/gatelog/internal/gatelog/store/sqlite"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

func sampleRecords() []types.AccessRecord {
	ts := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	return []types.AccessRecord{
		{
			ID: "r-1", FleetNumber: "201", CollaboratorName: "Maria Souza",
			CollaboratorCode: "C-9", Type: types.RecordEntry, Timestamp: ts,
			Destination: "Oficina", RegisteredBy: "Ana",
			Photo: "data:image/png;base64,iVBORw0KGgo=",
		},
		{
			ID: "r-2", FleetNumber: "202", CollaboratorName: "Pedro",
			Type: types.RecordExit, Timestamp: ts.Add(90 * time.Second),
			MaterialExit: true, Observation: "pallets, 3x", RegisteredBy: "Ana",
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Load: nothing persisted
// ═══════════════════════════════════════════════════════════════════════════

func TestRecordStore_Load_Empty(t *testing.T) {
	conn := openTestDB(t)
	rs := sqlitestore.NewRecordStore(conn, newTestWriter(t, conn), "")

	recs, err := rs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Save / Load: round trip keeps content and order
// ═══════════════════════════════════════════════════════════════════════════

func TestRecordStore_RoundTrip(t *testing.T) {
	conn := openTestDB(t)
	rs := sqlitestore.NewRecordStore(conn, newTestWriter(t, conn), "")
	ctx := context.Background()

	in := sampleRecords()
	if err := rs.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := rs.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Save: full overwrite of a single row
// ═══════════════════════════════════════════════════════════════════════════

func TestRecordStore_Save_Overwrites(t *testing.T) {
	conn := openTestDB(t)
	rs := sqlitestore.NewRecordStore(conn, newTestWriter(t, conn), "")
	ctx := context.Background()

	if err := rs.Save(ctx, sampleRecords()); err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	if err := rs.Save(ctx, nil); err != nil {
		t.Fatalf("Save 2: %v", err)
	}

	var rows, count int
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(record_count), -1) FROM ledger_snapshots WHERE ledger_key = ?`,
		store.DefaultLedgerKey,
	).Scan(&rows, &count)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if rows != 1 {
		t.Errorf("expected 1 snapshot row, got %d", rows)
	}
	if count != 0 {
		t.Errorf("expected record_count=0 after clearing, got %d", count)
	}

	out, err := rs.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty ledger, got %d records", len(out))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Keys are independent
// ═══════════════════════════════════════════════════════════════════════════

func TestRecordStore_SeparateKeys(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	a := sqlitestore.NewRecordStore(conn, w, "gate-a")
	b := sqlitestore.NewRecordStore(conn, w, "gate-b")
	ctx := context.Background()

	if err := a.Save(ctx, sampleRecords()); err != nil {
		t.Fatalf("Save a: %v", err)
	}

	out, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load b: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected gate-b to be empty, got %d records", len(out))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Load: corrupt payload
// ═══════════════════════════════════════════════════════════════════════════

func TestRecordStore_Load_Corrupt(t *testing.T) {
	conn := openTestDB(t)
	rs := sqlitestore.NewRecordStore(conn, newTestWriter(t, conn), "")
	ctx := context.Background()

	_, err := conn.ExecContext(ctx, `
INSERT INTO ledger_snapshots(ledger_key, payload, record_count, saved_at_ms)
VALUES (?, ?, 1, 0);`, store.DefaultLedgerKey, []byte(`[{"id":`))
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	_, err = rs.Load(ctx)
	if !errors.Is(err, store.ErrSnapshotCorrupt) {
		t.Fatalf("expected ErrSnapshotCorrupt, got %v", err)
	}

	// Overwriting the ledger leaves the bad payload readable under the
	// corrupt key.
	if err := rs.Save(ctx, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var aside []byte
	err = conn.QueryRowContext(ctx, `SELECT payload FROM ledger_snapshots WHERE ledger_key = ?;`,
		store.CorruptKey(store.DefaultLedgerKey)).Scan(&aside)
	if err != nil {
		t.Fatalf("read corrupt copy: %v", err)
	}
	if string(aside) != `[{"id":` {
		t.Errorf("unexpected corrupt copy %q", aside)
	}
}
