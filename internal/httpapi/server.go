package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

const retryMessage = "Export failed. Local records were kept; please try again."

type Dependencies struct {
	Logger  *zap.Logger
	Addr    string
	Session *service.Session

	// Clock stamps server_time in responses; defaults to time.Now.
	Clock func() time.Time
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	session    *service.Session
	clock      func() time.Time
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Server{
		logger:  logger.Named("http"),
		mux:     mux,
		session: d.Session,
		clock:   clock,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/session/login", s.handleLogin)
	mux.HandleFunc("POST /v1/session/logout", s.handleLogout)
	mux.HandleFunc("POST /v1/records", s.handleRegister)
	mux.HandleFunc("GET /v1/records", s.handleList)
	mux.HandleFunc("GET /v1/records/summary", s.handleSummary)
	mux.HandleFunc("POST /v1/records/clear", s.handleClear)
	mux.HandleFunc("POST /v1/export", s.handleExport)

	handler := loggingMiddleware(s.logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) serverTime() string {
	return s.clock().UTC().Format(time.RFC3339)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]any{
		"ok":           true,
		"pending":      s.session.Pending(),
		"export_state": s.session.ExportState().String(),
		"server_time":  s.serverTime(),
	})
}

// ── Session ──────────────────────────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	u, err := s.session.Login(r.Context(), req.OperatorID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownOperator) {
			writeError(w, r, http.StatusUnauthorized, "unknown_operator", err.Error())
			return
		}
		s.logger.Error("login error", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	respond(w, r, http.StatusOK, types.LoginResponse{OK: true, User: u})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req types.ConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	if err := s.session.Logout(r.Context(), answer(req.Confirm)); err != nil {
		if errors.Is(err, service.ErrNotConfirmed) {
			writeError(w, r, http.StatusConflict, "not_confirmed",
				fmt.Sprintf("There are %d records pending export. Resend with confirm=true to log out anyway.", s.session.Pending()))
			return
		}
		s.logger.Error("logout error", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ── Records ──────────────────────────────────────────────────────────────────

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var draft types.RecordDraft
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	rec, err := s.session.Register(r.Context(), draft)
	resp := types.RegisterResponse{OK: true, Record: rec, Persisted: true}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotLoggedIn):
			writeError(w, r, http.StatusUnauthorized, "not_logged_in", err.Error())
			return
		case errors.Is(err, service.ErrInvalidRecord):
			writeError(w, r, http.StatusBadRequest, "invalid_record", err.Error())
			return
		case errors.Is(err, service.ErrStorageWrite):
			// The record is in the ledger; only its persistence failed.
			s.logger.Warn("record kept in memory only", zap.String("id", rec.ID), zap.Error(err))
			resp.Persisted = false
			resp.Warning = "Record saved for this session but could not be written to local storage."
		default:
			s.logger.Error("register error", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	resp.Pending = s.session.Pending()
	respond(w, r, http.StatusCreated, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs := s.session.Records()
	if recs == nil {
		recs = []types.AccessRecord{}
	}
	respond(w, r, http.StatusOK, map[string]any{
		"ok":      true,
		"count":   len(recs),
		"records": recs,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, s.session.Summary())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req types.ConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	n, err := s.session.ClearAll(r.Context(), answer(req.Confirm))
	persisted := true
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotConfirmed):
			writeError(w, r, http.StatusConflict, "not_confirmed",
				fmt.Sprintf("Resend with confirm=true to discard %d records without exporting them.", s.session.Pending()))
			return
		case errors.Is(err, service.ErrStorageWrite):
			s.logger.Warn("ledger cleared in memory only", zap.Error(err))
			persisted = false
		default:
			s.logger.Error("clear error", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	respond(w, r, http.StatusOK, map[string]any{
		"ok":        true,
		"discarded": n,
		"persisted": persisted,
	})
}

// ── Export ───────────────────────────────────────────────────────────────────

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req types.ConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	// Once confirmed, an export runs to completion even if the client goes
	// away; the outcome is in the ledger and the logs.
	out, err := s.session.Export(context.WithoutCancel(r.Context()), answer(req.Confirm))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotConfirmed):
			writeError(w, r, http.StatusConflict, "not_confirmed",
				fmt.Sprintf("Resend with confirm=true to export %d records.", s.session.Pending()))
		case errors.Is(err, service.ErrExportInProgress):
			writeError(w, r, http.StatusConflict, "export_in_progress", err.Error())
		case errors.Is(err, service.ErrDeliveryFailed):
			writeError(w, r, http.StatusBadGateway, "export_failed", retryMessage)
		default:
			s.logger.Error("export error", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	if out.PersistErr != nil {
		s.logger.Warn("exported records removed in memory only", zap.Error(out.PersistErr))
	}
	respond(w, r, http.StatusOK, exportResponse(out, s.serverTime()))
}

func exportResponse(out service.ExportOutcome, serverTime string) types.ExportResponse {
	resp := types.ExportResponse{
		OK:         true,
		Status:     string(out.Status),
		Records:    out.Records,
		Photos:     out.Photos,
		Bytes:      out.Bytes,
		ServerTime: serverTime,
	}
	switch out.Status {
	case service.ExportNothing:
		resp.Message = "No records to export."
	default:
		resp.Message = fmt.Sprintf("Exported %d records and %d photos to %s.", out.Records, out.Photos, out.ReportName)
		if out.PersistErr != nil {
			resp.Message += " Local storage could not be cleared; exported records may reappear after a restart."
		}
	}
	return resp
}

// answer is the confirmation gate for HTTP: the client's confirm flag is
// its answer to the prompt.
func answer(confirm bool) service.Confirmer {
	if confirm {
		return service.AlwaysConfirm
	}
	return service.NeverConfirm
}
