package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/storage"
)

func TestFavoritesAddRemoveIdempotent(t *testing.T) {
	rq := require.New(t)
	store, err := storage.OpenFavorites(t.TempDir())
	rq.NoError(err)

	changed, err := store.Add(dealers.Netto)
	rq.NoError(err)
	rq.True(changed)

	changed, err = store.Add(dealers.Netto)
	rq.NoError(err)
	rq.False(changed, "adding a present dealer must not report a change")

	changed, err = store.Remove(dealers.Netto)
	rq.NoError(err)
	rq.True(changed)

	changed, err = store.Remove(dealers.Netto)
	rq.NoError(err)
	rq.False(changed, "removing an absent dealer must not report a change")
}

func TestFavoritesWriteThroughRoundTrip(t *testing.T) {
	rq := require.New(t)
	dir := t.TempDir()

	store, err := storage.OpenFavorites(dir)
	rq.NoError(err)

	_, err = store.Add(dealers.Bilka, dealers.Foetex, dealers.Rema1000)
	rq.NoError(err)
	_, err = store.Remove(dealers.Bilka)
	rq.NoError(err)

	reopened, err := storage.OpenFavorites(dir)
	rq.NoError(err)
	rq.Equal([]dealers.Dealer{dealers.Foetex, dealers.Rema1000}, reopened.List())
}

func TestShouldRefreshOnFreshStore(t *testing.T) {
	rq := require.New(t)
	store, err := storage.OpenFavorites(t.TempDir())
	rq.NoError(err)

	// Never refreshed: the zero last-refresh date is before today.
	rq.True(store.ShouldRefresh())
}

func TestMarkRefreshedClearsStaleness(t *testing.T) {
	rq := require.New(t)
	dir := t.TempDir()

	store, err := storage.OpenFavorites(dir)
	rq.NoError(err)
	_, err = store.Add(dealers.Netto)
	rq.NoError(err)
	rq.True(store.ShouldRefresh())

	rq.NoError(store.MarkRefreshed())
	rq.False(store.ShouldRefresh())

	// The cleared state survives a reopen.
	reopened, err := storage.OpenFavorites(dir)
	rq.NoError(err)
	rq.False(reopened.ShouldRefresh())
}

func TestFavoritesChangeDominatesFreshDate(t *testing.T) {
	rq := require.New(t)
	store, err := storage.OpenFavorites(t.TempDir())
	rq.NoError(err)

	rq.NoError(store.MarkRefreshed())
	rq.False(store.ShouldRefresh())

	_, err = store.Add(dealers.Aldi)
	rq.NoError(err)
	rq.True(store.ShouldRefresh(), "a changed favorites set forces a refresh even on the refresh day")
}

func TestOpenFavoritesDropsUnknownEntries(t *testing.T) {
	rq := require.New(t)
	dir := t.TempDir()

	doc := `{"favorites":["Netto","Walmart"],"date_of_last_refresh":"2024-01-01","favorites_changed":false}`
	rq.NoError(os.WriteFile(filepath.Join(dir, "userdata.json"), []byte(doc), 0o644))

	store, err := storage.OpenFavorites(dir)
	rq.NoError(err)
	rq.Equal([]dealers.Dealer{dealers.Netto}, store.List())
}
