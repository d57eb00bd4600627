package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/delivery"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// DefaultPhotoDelay spaces consecutive photo deliveries so download targets
// that throttle bursts of files do not drop any.
const DefaultPhotoDelay = 300 * time.Millisecond

const waitPollInterval = 20 * time.Millisecond

type ExportState int32

const (
	ExportIdle ExportState = iota
	ExportRunning
	ExportDone
	ExportAborted
)

func (s ExportState) String() string {
	switch s {
	case ExportIdle:
		return "idle"
	case ExportRunning:
		return "exporting"
	case ExportDone:
		return "succeeded"
	case ExportAborted:
		return "failed"
	default:
		return fmt.Sprintf("ExportState(%d)", int32(s))
	}
}

type ExportStatus string

const (
	ExportNothing   ExportStatus = "nothing_to_export"
	ExportSucceeded ExportStatus = "succeeded"
	ExportFailed    ExportStatus = "failed"
)

// ExportOutcome reports one Run.  On failure only Status is meaningful;
// which artifacts got through before the failure is not reported.
type ExportOutcome struct {
	Status     ExportStatus
	Records    int
	Photos     int
	Bytes      int64
	ReportName string

	// PersistErr is set when the export succeeded but the emptied ledger
	// could not be written to the store.
	PersistErr error
}

type ExportOptions struct {
	PhotoDelay   time.Duration
	Location     *time.Location
	ReportPrefix string

	// Clock and Sleep are replaced in tests.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o ExportOptions) withDefaults() ExportOptions {
	out := o
	if out.PhotoDelay < 0 {
		out.PhotoDelay = 0
	}
	if out.Location == nil {
		out.Location = time.Local
	}
	if out.ReportPrefix == "" {
		out.ReportPrefix = DefaultReportPrefix
	}
	if out.Clock == nil {
		out.Clock = time.Now
	}
	if out.Sleep == nil {
		out.Sleep = sleepContext
	}
	return out
}

// Exporter delivers a ledger snapshot as one CSV report followed by one
// file per photo, then removes the exported records from the ledger.  Only
// one Run may be in flight at a time.
type Exporter struct {
	ledger    *Ledger
	deliverer delivery.Deliverer
	opts      ExportOptions
	logger    *zap.Logger
	state     atomic.Int32
}

func NewExporter(l *Ledger, d delivery.Deliverer, opts ExportOptions, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		ledger:    l,
		deliverer: d,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// State is the state of the current run, or the terminal state of the last
// one.
func (e *Exporter) State() ExportState {
	return ExportState(e.state.Load())
}

// Run exports snap.  The snapshot is used as given for the whole run;
// records appended to the ledger meanwhile are kept.
//
// An empty snapshot performs no delivery and reports ExportNothing.  Any
// delivery error aborts the remaining deliveries, leaves the ledger
// untouched and returns an error wrapping ErrDeliveryFailed.
func (e *Exporter) Run(ctx context.Context, snap []types.AccessRecord) (ExportOutcome, error) {
	prev, ok := e.begin()
	if !ok {
		return ExportOutcome{}, ErrExportInProgress
	}

	if len(snap) == 0 {
		e.state.Store(int32(prev))
		return ExportOutcome{Status: ExportNothing}, nil
	}

	out, err := e.run(ctx, snap)
	if err != nil {
		e.state.Store(int32(ExportAborted))
		e.logger.Error("export failed, ledger kept",
			zap.Int("records", len(snap)), zap.Error(err))
		return ExportOutcome{Status: ExportFailed}, err
	}

	e.state.Store(int32(ExportDone))
	e.logger.Info("export complete",
		zap.String("report", out.ReportName),
		zap.Int("records", out.Records),
		zap.Int("photos", out.Photos),
		zap.String("size", humanize.Bytes(uint64(out.Bytes))))
	return out, nil
}

// Wait blocks until no Run is in flight, or until ctx is done.
func (e *Exporter) Wait(ctx context.Context) error {
	if e.State() != ExportRunning {
		return nil
	}
	t := time.NewTicker(waitPollInterval)
	defer t.Stop()
	for e.State() == ExportRunning {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// begin moves the exporter to ExportRunning and returns the state it left.
func (e *Exporter) begin() (ExportState, bool) {
	for {
		cur := e.state.Load()
		if ExportState(cur) == ExportRunning {
			return ExportRunning, false
		}
		if e.state.CompareAndSwap(cur, int32(ExportRunning)) {
			return ExportState(cur), true
		}
	}
}

func (e *Exporter) run(ctx context.Context, snap []types.AccessRecord) (ExportOutcome, error) {
	out := ExportOutcome{Status: ExportSucceeded, Records: len(snap)}

	report := delivery.Artifact{
		Name:    ReportName(e.opts.ReportPrefix, e.opts.Clock(), e.opts.Location),
		Kind:    delivery.KindReport,
		Content: RenderReport(snap, e.opts.Location),
	}
	if err := e.deliver(ctx, report); err != nil {
		return ExportOutcome{}, err
	}
	out.ReportName = report.Name
	out.Bytes += int64(len(report.Content))

	for _, rec := range snap {
		if !rec.HasPhoto() {
			continue
		}
		if out.Photos > 0 {
			if err := e.opts.Sleep(ctx, e.opts.PhotoDelay); err != nil {
				return ExportOutcome{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
			}
		}

		photo, err := PhotoArtifact(rec)
		if err != nil {
			return ExportOutcome{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		}
		if err := e.deliver(ctx, photo); err != nil {
			return ExportOutcome{}, err
		}
		out.Photos++
		out.Bytes += int64(len(photo.Content))
	}

	removed, err := e.ledger.Discard(ctx, snap)
	if err != nil {
		out.PersistErr = err
	}
	if removed != len(snap) {
		e.logger.Warn("exported records were not all in the ledger",
			zap.Int("exported", len(snap)), zap.Int("removed", removed))
	}
	return out, nil
}

func (e *Exporter) deliver(ctx context.Context, a delivery.Artifact) error {
	if err := e.deliverer.Deliver(ctx, a); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, a.Name, err)
	}
	e.logger.Debug("artifact delivered",
		zap.String("name", a.Name), zap.String("kind", string(a.Kind)), zap.Int("bytes", len(a.Content)))
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
