package redis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	redisstore "github.com/BrandonDHaskell/gatelog/internal/gatelog/store/redis"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// fakeClient answers GET/SET from a map using go-redis' own result types.
type fakeClient struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	setErr error
	getErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(string(v), nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, exp time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return goredis.NewStatusResult("", f.setErr)
	}
	f.data[key] = append([]byte(nil), value.([]byte)...)
	f.ttls[key] = exp
	return goredis.NewStatusResult("OK", nil)
}

func TestRecordStore_MissingKeyIsEmpty(t *testing.T) {
	rs := redisstore.NewRecordStore(newFakeClient(), "")

	recs, err := rs.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRecordStore_RoundTripWithoutExpiry(t *testing.T) {
	fc := newFakeClient()
	rs := redisstore.NewRecordStore(fc, "gate-7")
	ctx := context.Background()

	ts := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	in := []types.AccessRecord{
		{ID: "x", Type: types.RecordEntry, Timestamp: ts, CollaboratorName: "Lia"},
		{ID: "y", Type: types.RecordExit, Timestamp: ts.Add(time.Hour), CollaboratorName: "Lia"},
	}
	require.NoError(t, rs.Save(ctx, in))

	out, err := rs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, in, out)
	require.Contains(t, fc.data, "gate-7")
	require.Zero(t, fc.ttls["gate-7"])
}

func TestRecordStore_CorruptValue(t *testing.T) {
	fc := newFakeClient()
	fc.data[store.DefaultLedgerKey] = []byte("not-json")
	rs := redisstore.NewRecordStore(fc, "")

	_, err := rs.Load(context.Background())
	require.ErrorIs(t, err, store.ErrSnapshotCorrupt)

	require.NoError(t, rs.Save(context.Background(), nil))
	require.Equal(t, "not-json", string(fc.data[store.CorruptKey(store.DefaultLedgerKey)]))
	require.Zero(t, fc.ttls[store.CorruptKey(store.DefaultLedgerKey)])
}

func TestRecordStore_BackendErrors(t *testing.T) {
	fc := newFakeClient()
	boom := errors.New("connection reset")
	rs := redisstore.NewRecordStore(fc, "")

	fc.setErr = boom
	require.ErrorIs(t, rs.Save(context.Background(), nil), boom)

	fc.getErr = boom
	_, err := rs.Load(context.Background())
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, store.ErrSnapshotCorrupt)
}
