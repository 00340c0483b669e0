package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/weisyn/coprocessor/internal/config"
	fetcherconfig "github.com/weisyn/coprocessor/internal/config/fetcher"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/coprocessor/internal/testutil"
	configiface "github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/coprocessor/pkg/types"
)

func testProvider(backend string) configiface.Provider {
	return config.NewProvider(&types.AppConfig{
		Fetcher: &types.UserFetcherConfig{CacheBackend: types.StringPtr(backend)},
		Storage: &types.UserStorageConfig{InMemory: types.BoolPtr(true)},
	})
}

func TestNewProgramCache_Backends(t *testing.T) {
	ctx := context.Background()

	cache, err := NewProgramCache(ctx, fetcherconfig.CacheNone, testProvider("none"), nil)
	require.NoError(t, err)
	assert.Nil(t, cache)

	cache, err = NewProgramCache(ctx, fetcherconfig.CacheMemory, testProvider("memory"), nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, cache)
	require.NoError(t, cache.Close())

	_, err = NewProgramCache(ctx, "tape", testProvider("memory"), nil)
	assert.Error(t, err)
}

func TestModule_WiresStores(t *testing.T) {
	var (
		store storageInterface.BadgerStore
		cache storageInterface.ProgramCache
	)
	app := fxtest.New(t,
		fx.Provide(
			func() configiface.Provider { return testProvider("memory") },
			func() log.Logger { return testutil.NewTestLogger() },
			OpenBadgerStore,
		),
		Module(),
		fx.Populate(&store, &cache),
	)
	app.RequireStart()

	require.NoError(t, store.Set(context.Background(), []byte("k"), []byte("v")))
	require.NotNil(t, cache)

	app.RequireStop()
}
