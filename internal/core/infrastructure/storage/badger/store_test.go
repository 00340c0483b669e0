package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/coprocessor/internal/config/storage/badger"
	"github.com/weisyn/coprocessor/internal/testutil"
	interfaces "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&badgerconfig.BadgerOptions{InMemory: true}, testutil.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_BasicOperations(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	v, err := s.Get(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, []byte("k"), []byte("v")))
	v, err = s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	ok, err := s.Exists(ctx, []byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, []byte("k")))
	ok, err = s.Exists(ctx, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PrefixScan(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, []byte("a:1"), []byte("1")))
	require.NoError(t, s.Set(ctx, []byte("a:2"), []byte("2")))
	require.NoError(t, s.Set(ctx, []byte("b:1"), []byte("3")))

	got, err := s.PrefixScan(ctx, []byte("a:"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a:1": []byte("1"), "a:2": []byte("2")}, got)
}

func TestStore_TransactionRollback(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(tx interfaces.BadgerTransaction) error {
		require.NoError(t, tx.Set([]byte("k"), []byte("v")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.Exists(ctx, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DiskPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(&badgerconfig.BadgerOptions{Path: dir, SyncWrites: true}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, []byte("k"), []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = New(&badgerconfig.BadgerOptions{Path: dir}, nil)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), v)
}

func TestStore_RejectsWritesAfterClose(t *testing.T) {
	s, err := New(&badgerconfig.BadgerOptions{InMemory: true}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Set(context.Background(), []byte("k"), []byte("v")), ErrStoreClosing)
}
