package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// Confirmer is the yes/no gate put in front of destructive session actions.
// A false answer aborts the action with no side effects.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

var (
	AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })
	NeverConfirm  Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
)

type SessionDeps struct {
	Ledger    *Ledger
	Exporter  *Exporter
	Operators *OperatorDirectory
	Logger    *zap.Logger

	// Clock and NewID are replaced in tests.
	Clock func() time.Time
	NewID func() string
}

// Session wires the operator-facing actions around one ledger: who is
// logged in, registering records, and the confirmation gates before logout
// and export.
type Session struct {
	ledger    *Ledger
	exporter  *Exporter
	operators *OperatorDirectory
	logger    *zap.Logger
	clock     func() time.Time
	newID     func() string

	mu        sync.Mutex
	user      *types.User
	lastStamp time.Time
}

func NewSession(d SessionDeps) *Session {
	s := &Session{
		ledger:    d.Ledger,
		exporter:  d.Exporter,
		operators: d.Operators,
		logger:    d.Logger,
		clock:     d.Clock,
		newID:     d.NewID,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if last, ok := d.Ledger.Latest(); ok {
		s.lastStamp = last
	}
	return s
}

func (s *Session) Login(ctx context.Context, operatorID string) (types.User, error) {
	u, err := s.operators.Resolve(ctx, operatorID)
	if err != nil {
		return types.User{}, err
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	s.logger.Info("operator logged in", zap.String("operator", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Logout asks for confirmation when records are still waiting for export.
func (s *Session) Logout(ctx context.Context, gate Confirmer) error {
	if n := s.ledger.Len(); n > 0 {
		msg := fmt.Sprintf("There are %d records pending export. Log out anyway?", n)
		if !gate.Confirm(ctx, msg) {
			return ErrNotConfirmed
		}
		s.logger.Warn("operator logged out with pending records", zap.Int("pending", n))
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) CurrentUser() (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// Register validates a draft, stamps it and appends it to the ledger.
//
// The record is returned even when err wraps ErrStorageWrite: it is in the
// ledger, only its persistence failed.
func (s *Session) Register(ctx context.Context, d types.RecordDraft) (types.AccessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return types.AccessRecord{}, ErrNotLoggedIn
	}

	rec, err := s.buildRecord(d)
	if err != nil {
		return types.AccessRecord{}, err
	}

	if err := s.ledger.Append(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *Session) buildRecord(d types.RecordDraft) (types.AccessRecord, error) {
	typ, ok := types.ParseRecordType(d.Type)
	if !ok {
		return types.AccessRecord{}, fmt.Errorf("%w: type must be ENTRADA or SAIDA, got %q", ErrInvalidRecord, d.Type)
	}
	name := strings.TrimSpace(d.CollaboratorName)
	if name == "" {
		return types.AccessRecord{}, fmt.Errorf("%w: collaborator name is required", ErrInvalidRecord)
	}
	photo := strings.TrimSpace(d.Photo)
	if photo != "" {
		if _, _, err := DecodeDataURL(photo); err != nil {
			return types.AccessRecord{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
	}

	// Timestamps never go backwards in append order, even if the wall
	// clock is stepped back.
	ts := s.clock().UTC().Truncate(time.Millisecond)
	if ts.Before(s.lastStamp) {
		ts = s.lastStamp
	}
	s.lastStamp = ts

	return types.AccessRecord{
		ID:               s.newID(),
		FleetNumber:      strings.TrimSpace(d.FleetNumber),
		CollaboratorName: name,
		CollaboratorCode: strings.TrimSpace(d.CollaboratorCode),
		Type:             typ,
		Timestamp:        ts,
		Destination:      strings.TrimSpace(d.Destination),
		Observation:      strings.TrimSpace(d.Observation),
		MaterialExit:     d.MaterialExit,
		RegisteredBy:     s.user.Name,
		Photo:            photo,
	}, nil
}

// Export runs the export pipeline on the current ledger after the operator
// confirms.  An empty ledger is reported as ExportNothing without asking.
func (s *Session) Export(ctx context.Context, gate Confirmer) (ExportOutcome, error) {
	snap := s.ledger.Snapshot()
	if len(snap) == 0 {
		return ExportOutcome{Status: ExportNothing}, nil
	}
	if s.exporter.State() == ExportRunning {
		return ExportOutcome{}, ErrExportInProgress
	}

	photos := 0
	for _, r := range snap {
		if r.HasPhoto() {
			photos++
		}
	}
	msg := fmt.Sprintf("Export %d records and %d photos now? Local storage will be cleared after delivery.", len(snap), photos)
	if !gate.Confirm(ctx, msg) {
		return ExportOutcome{}, ErrNotConfirmed
	}

	return s.exporter.Run(ctx, snap)
}

// ClearAll is the explicit operator clear, outside of an export.
func (s *Session) ClearAll(ctx context.Context, gate Confirmer) (int, error) {
	n := s.ledger.Len()
	if n == 0 {
		return 0, nil
	}
	if !gate.Confirm(ctx, fmt.Sprintf("Discard %d records without exporting them?", n)) {
		return 0, ErrNotConfirmed
	}
	s.logger.Warn("ledger cleared without export", zap.Int("discarded", n))
	return n, s.ledger.Clear(ctx)
}

func (s *Session) Records() []types.AccessRecord {
	return s.ledger.Snapshot()
}

func (s *Session) Summary() Summary {
	return Summarize(s.ledger.Snapshot())
}

func (s *Session) Pending() int {
	return s.ledger.Len()
}

func (s *Session) ExportState() ExportState {
	return s.exporter.State()
}
