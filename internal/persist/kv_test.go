package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements cmdable over a map.
type fakeRedis struct {
	values map[string]string
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func backends(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := NewFileKV(filepath.Join(t.TempDir(), "state", "ledger.json"))
	require.NoError(t, err)

	sqlKV, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqlKV,
		"redis":  &RedisKV{store: newFakeRedis()},
	}
}

func TestKV_Conformance(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := kv.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, kv.Set(ctx, "hasBeenUsed", "true"))
			value, err := kv.Get(ctx, "hasBeenUsed")
			require.NoError(t, err)
			assert.Equal(t, "true", value)

			require.NoError(t, kv.Set(ctx, "hasBeenUsed", "false"))
			value, err = kv.Get(ctx, "hasBeenUsed")
			require.NoError(t, err)
			assert.Equal(t, "false", value, "Set should replace the previous value")

			require.NoError(t, kv.Set(ctx, "material", `{"materials":[],"lastId":0}`))
			require.NoError(t, kv.Delete(ctx, "hasBeenUsed"))
			_, err = kv.Get(ctx, "hasBeenUsed")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			value, err = kv.Get(ctx, "material")
			require.NoError(t, err)
			assert.Equal(t, `{"materials":[],"lastId":0}`, value, "Delete should only remove its key")

			assert.NoError(t, kv.Delete(ctx, "never-set"))
		})
	}
}

func TestMemoryKV_CancelledContext(t *testing.T) {
	kv := NewMemoryKV()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, kv.Set(ctx, "k", "v"), context.Canceled)
	assert.ErrorIs(t, kv.Delete(ctx, "k"), context.Canceled)
}

func TestFileKV_SurvivesReopen(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "ledger.json")
	ctx := context.Background()

	first, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "hasBeenUsed", "true"))
	require.NoError(t, first.Close())

	// Act
	second, err := NewFileKV(path)
	require.NoError(t, err)
	value, err := second.Get(ctx, "hasBeenUsed")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "true", value)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestFileKV_SharedFileKeepsOtherWriters(t *testing.T) {
	// Arrange: a serving process and a CLI process open the same file.
	path := filepath.Join(t.TempDir(), "ledger.json")
	ctx := context.Background()

	served, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, served.Set(ctx, FlagKey, FlagValue))
	cli, err := NewFileKV(path)
	require.NoError(t, err)

	// Act
	require.NoError(t, cli.Delete(ctx, FlagKey))
	require.NoError(t, served.Set(ctx, StateKey, `{"materials":[],"lastId":0}`))

	// Assert
	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	_, err = reopened.Get(ctx, FlagKey)
	assert.ErrorIs(t, err, ErrKeyNotFound, "a delete from another writer must survive")
	_, err = served.Get(ctx, FlagKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	state, err := reopened.Get(ctx, StateKey)
	require.NoError(t, err)
	assert.Equal(t, `{"materials":[],"lastId":0}`, state)
}

func TestFileKV_Errors(t *testing.T) {
	_, err := NewFileKV("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = NewFileKV(path)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	kv, err := NewFileKV(empty)
	require.NoError(t, err)
	_, err = kv.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisKV_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	kv := &RedisKV{store: &fakeRedis{values: map[string]string{}, err: boom}}
	ctx := context.Background()

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, kv.Set(ctx, "k", "v"), boom)
	assert.ErrorIs(t, kv.Delete(ctx, "k"), boom)
	assert.NoError(t, kv.Close())
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		opts     RedisOptions
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{name: "missing", opts: RedisOptions{}, wantErr: true},
		{name: "address", opts: RedisOptions{Addr: "cache:6379", DB: 3}, wantAddr: "cache:6379", wantDB: 3},
		{name: "url", opts: RedisOptions{URL: "redis://cache:6380/2"}, wantAddr: "cache:6380", wantDB: 2},
		{name: "url falls back to configured db", opts: RedisOptions{URL: "redis://cache:6380", DB: 4}, wantAddr: "cache:6380", wantDB: 4},
		{name: "bad url", opts: RedisOptions{URL: "http://cache"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := redisOptions(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, got.Addr)
			assert.Equal(t, tt.wantDB, got.DB)
		})
	}
}

func TestOpenSQL_Errors(t *testing.T) {
	_, err := OpenSQL("sqlite", "")
	assert.Error(t, err)

	_, err = OpenSQL("mysql", "dsn")
	assert.Error(t, err)
}

func TestSQLKV_EmptyKey(t *testing.T) {
	kv, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "material", "{}"))

	_, err = kv.Get(ctx, "")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Error(t, kv.Set(ctx, "", "v"))
	assert.Error(t, kv.Delete(ctx, ""))
}
