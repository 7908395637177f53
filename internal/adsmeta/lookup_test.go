package adsmeta

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLookupOmitsUnknownIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT ad_id, ad_name, ad_set_id").
		WithArgs("ad-1", "ad-404").
		WillReturnRows(sqlmock.NewRows([]string{
			"ad_id", "ad_name", "ad_set_id", "ad_set_name", "campaign_id", "campaign_name",
		}).AddRow("ad-1", "Blue Hero", "set-1", "Prospecting", "cmp-1", "Spring Sale"))

	got, err := NewStore(db).Lookup(context.Background(), []string{"ad-1", "ad-404"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Blue Hero", got["ad-1"].AdName)
	_, ok := got["ad-404"]
	assert.False(t, ok)
}

func TestStoreLookupEmptyInput(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	got, err := NewStore(db).Lookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// countingLookup tracks which IDs reached the inner store.
type countingLookup struct {
	meta  map[string]AdMeta
	calls [][]string
}

func (c *countingLookup) Lookup(ctx context.Context, adIDs []string) (map[string]AdMeta, error) {
	c.calls = append(c.calls, adIDs)
	out := make(map[string]AdMeta)
	for _, id := range adIDs {
		if m, ok := c.meta[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func TestCachedLookupServesFromCacheOnSecondCall(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingLookup{meta: map[string]AdMeta{
		"ad-1": {AdID: "ad-1", AdName: "Blue Hero", CampaignName: "Spring Sale"},
	}}
	cached := NewCachedLookup(inner, rdb, time.Minute)

	got, err := cached.Lookup(context.Background(), []string{"ad-1"})
	require.NoError(t, err)
	assert.Equal(t, "Blue Hero", got["ad-1"].AdName)
	require.Len(t, inner.calls, 1)

	got, err = cached.Lookup(context.Background(), []string{"ad-1"})
	require.NoError(t, err)
	assert.Equal(t, "Blue Hero", got["ad-1"].AdName)
	assert.Len(t, inner.calls, 1, "second lookup should not reach the store")
}

func TestCachedLookupFetchesOnlyMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingLookup{meta: map[string]AdMeta{
		"ad-1": {AdID: "ad-1", AdName: "Blue Hero"},
		"ad-2": {AdID: "ad-2", AdName: "Red Hero"},
	}}
	cached := NewCachedLookup(inner, rdb, time.Minute)

	_, err := cached.Lookup(context.Background(), []string{"ad-1"})
	require.NoError(t, err)

	got, err := cached.Lookup(context.Background(), []string{"ad-1", "ad-2"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"ad-2"}, inner.calls[1])
}

func TestCachedLookupExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingLookup{meta: map[string]AdMeta{
		"ad-1": {AdID: "ad-1", AdName: "Blue Hero"},
	}}
	cached := NewCachedLookup(inner, rdb, time.Minute)

	_, err := cached.Lookup(context.Background(), []string{"ad-1"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cached.Lookup(context.Background(), []string{"ad-1"})
	require.NoError(t, err)
	assert.Len(t, inner.calls, 2, "expired entry should fall through to the store")
}
