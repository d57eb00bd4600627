package cli

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/config"
	"github.com/BrandonDHaskell/gatelog/internal/db"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/delivery"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store/memory"
	redisstore "github.com/BrandonDHaskell/gatelog/internal/gatelog/store/redis"
	sqlitestore "github.com/BrandonDHaskell/gatelog/internal/gatelog/store/sqlite"
)

// app is the dependency graph shared by every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	ledger   *service.Ledger
	exporter *service.Exporter
	session  *service.Session

	closers []func() error
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg := opts.Config
	a := &app{cfg: cfg, logger: opts.Logger}

	st, err := a.openRecordStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open ledger store", err)
	}

	out, err := delivery.NewDir(cfg.ExportDir)
	if err != nil {
		_ = a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to prepare export directory", err)
	}

	a.ledger = service.OpenLedger(ctx, st, a.logger.Named("ledger"))
	a.exporter = service.NewExporter(a.ledger, out, service.ExportOptions{
		PhotoDelay:   cfg.PhotoDelay,
		Location:     cfg.Location,
		ReportPrefix: cfg.ReportPrefix,
	}, a.logger.Named("export"))
	a.session = service.NewSession(service.SessionDeps{
		Ledger:    a.ledger,
		Exporter:  a.exporter,
		Operators: service.NewOperatorDirectory(memory.NewOperatorStore(cfg.Operators)),
		Logger:    a.logger.Named("session"),
	})

	a.logger.Info("ledger opened",
		zap.String("store", cfg.Store),
		zap.Int("pending", a.ledger.Len()),
		zap.String("export_dir", out.Path()))
	return a, nil
}

func (a *app) openRecordStore(ctx context.Context) (store.RecordStore, error) {
	switch a.cfg.Store {
	case config.StoreMemory:
		a.logger.Warn("using in-memory ledger store; records are lost on exit")
		return memory.NewRecordStore(), nil

	case config.StoreRedis:
		client, err := redisstore.Open(ctx, redisstore.Config{Addr: a.cfg.RedisAddr})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return redisstore.NewRecordStore(client, a.cfg.LedgerKey), nil

	default:
		conn, err := db.Open(ctx, db.Config{Path: a.cfg.DBPath})
		if err != nil {
			return nil, err
		}
		writer := db.NewWorker(conn)
		// Closed in reverse: the worker drains before the connection goes.
		a.closers = append(a.closers, conn.Close, func() error {
			writer.Close()
			return nil
		})
		return sqlitestore.NewRecordStore(conn, writer, a.cfg.LedgerKey), nil
	}
}

// Close releases the store in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
