package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/delivery"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store/memory"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// pngPhoto is a data URL holding the 8-byte PNG signature.
const pngPhoto = "data:image/png;base64,iVBORw0KGgo="

var baseTime = time.Date(2026, 10, 19, 14, 3, 5, 123_000_000, time.UTC)

func record(id string, photo bool) types.AccessRecord {
	r := types.AccessRecord{
		ID:               id,
		FleetNumber:      "F-" + id,
		CollaboratorName: "Collab " + id,
		CollaboratorCode: "C" + id,
		Type:             types.RecordEntry,
		Timestamp:        baseTime,
		Destination:      "Yard",
		RegisteredBy:     "Ana",
	}
	if photo {
		r.Photo = pngPhoto
	}
	return r
}

func openLedger(t *testing.T, recs ...types.AccessRecord) (*service.Ledger, *memory.RecordStore) {
	t.Helper()
	st := memory.NewRecordStore()
	l := service.OpenLedger(context.Background(), st, zap.NewNop())
	for _, r := range recs {
		if err := l.Append(context.Background(), r); err != nil {
			t.Fatalf("Append %s: %v", r.ID, err)
		}
	}
	return l, st
}

// sleepRecorder replaces the inter-photo wait so tests run instantly.
type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newExporter(l *service.Ledger, d delivery.Deliverer, sleeps *sleepRecorder) *service.Exporter {
	opts := service.ExportOptions{
		PhotoDelay: service.DefaultPhotoDelay,
		Location:   time.UTC,
		Clock:      func() time.Time { return baseTime },
	}
	if sleeps != nil {
		opts.Sleep = sleeps.Sleep
	}
	return service.NewExporter(l, d, opts, zap.NewNop())
}

func names(arts []delivery.Artifact) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = fmt.Sprintf("%s:%s", a.Kind, a.Name)
	}
	return out
}
