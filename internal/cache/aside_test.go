package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedRow struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAsideMissLoadsAndCaches(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	loads := 0
	var row cachedRow
	load := func() error {
		loads++
		row = cachedRow{ID: 7, Name: "first"}
		return nil
	}

	require.NoError(t, store.Aside(ctx, "row:7", &row, time.Minute, load))
	assert.Equal(t, 1, loads)
	assert.Equal(t, "first", row.Name)

	// Second call is served from cache; the loader must not run again.
	var again cachedRow
	require.NoError(t, store.Aside(ctx, "row:7", &again, time.Minute, func() error {
		loads++
		return nil
	}))
	assert.Equal(t, 1, loads)
	assert.Equal(t, cachedRow{ID: 7, Name: "first"}, again)
}

func TestAsideLoaderErrorNotCached(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	sentinel := errors.New("row missing")
	var row cachedRow
	err := store.Aside(ctx, "row:404", &row, time.Minute, func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	// A later successful load still runs the loader.
	loads := 0
	require.NoError(t, store.Aside(ctx, "row:404", &row, time.Minute, func() error {
		loads++
		return nil
	}))
	assert.Equal(t, 1, loads)
}

func TestAsideWithoutClientDegradesToLoader(t *testing.T) {
	for _, store := range []*Store{nil, NewStore(nil)} {
		loads := 0
		var row cachedRow
		require.NoError(t, store.Aside(context.Background(), "row:1", &row, time.Minute, func() error {
			loads++
			return nil
		}))
		assert.Equal(t, 1, loads)
	}
}

func TestInvalidateUser(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	var row cachedRow
	require.NoError(t, store.Aside(ctx, UserKey(3), &row, time.Minute, func() error {
		row = cachedRow{ID: 3, Name: "cached"}
		return nil
	}))

	store.InvalidateUser(ctx, 3)

	loads := 0
	require.NoError(t, store.Aside(ctx, UserKey(3), &row, time.Minute, func() error {
		loads++
		return nil
	}))
	assert.Equal(t, 1, loads)
}
