package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
)

func TestPendingReminder_CheckLogsOnlyWhenPending(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l, _ := openLedger(t)
	p := service.NewPendingReminder(l, service.ReminderConfig{IntervalMinutes: 30}, zap.New(core))

	require.Zero(t, p.Check())
	require.Zero(t, logs.FilterMessage("records waiting for export").Len())

	_ = l.Append(context.Background(), record("a", false))
	_ = l.Append(context.Background(), record("b", false))
	require.Equal(t, 2, p.Check())

	entries := logs.FilterMessage("records waiting for export").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.EqualValues(t, 2, entries[0].ContextMap()["pending"])
	require.Contains(t, entries[0].ContextMap(), "oldest_age")
}

func TestPendingReminder_DisabledStartStop(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l, _ := openLedger(t)
	p := service.NewPendingReminder(l, service.ReminderConfig{}, zap.New(core))

	p.Start(context.Background())
	p.Stop()
	p.Stop()
	require.Equal(t, 1, logs.FilterMessage("pending reminder disabled (interval=0)").Len())
}

func TestPendingReminder_StopBeforeStart(t *testing.T) {
	l, _ := openLedger(t)
	p := service.NewPendingReminder(l, service.ReminderConfig{IntervalMinutes: 1}, nil)
	p.Stop()
}

func TestPendingReminder_StopsWithContext(t *testing.T) {
	l, _ := openLedger(t)
	p := service.NewPendingReminder(l, service.ReminderConfig{IntervalMinutes: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}
