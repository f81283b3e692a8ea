package advisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/geo"
	"github.com/stockup/stockup/internal/location"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/repository"
	"github.com/stockup/stockup/internal/services/pantry"
	"github.com/stockup/stockup/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var home = models.Coordinate{Latitude: 40.7484, Longitude: -73.9857}

type fakeFinder struct {
	mu     sync.Mutex
	stores []models.StoreLocation
	err    error
	calls  int
}

func (f *fakeFinder) Nearby(_ context.Context, _ models.Coordinate, _ float64, _ string) ([]models.StoreLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.stores, f.err
}

func storeAt(id string, northM float64) models.StoreLocation {
	c := geo.Offset(home, northM, 0)
	return models.StoreLocation{ID: id, Name: "Store " + id, Address: id + " Main St", Latitude: c.Latitude, Longitude: c.Longitude}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Watch = false
	cfg.Places.APIKey = ""
	cfg.Location.Enabled = true
	cfg.Location.Source = config.LocationSourceHTTP
	return cfg
}

func newService(t *testing.T, finder StoreFinder, opts ...Option) (*Service, *testutil.TestDB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	static, err := location.NewStatic(home)
	require.NoError(t, err)

	opts = append([]Option{WithFinder(finder), WithProvider(static)}, opts...)
	svc, err := New(testConfig(), db.DB, opts...)
	require.NoError(t, err)
	return svc, db
}

func TestRefreshStores(t *testing.T) {
	finder := &fakeFinder{stores: []models.StoreLocation{
		storeAt("far", 1700), storeAt("near", 50), storeAt("mid", 300),
		storeAt("mile", 1609), storeAt("ok", 900), storeAt("here", 10),
	}}
	svc, db := newService(t, finder)

	nearest, err := svc.RefreshStores(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, d := range nearest {
		ids = append(ids, d.Store.ID)
	}
	assert.Equal(t, []string{"here", "near", "mid", "ok", "mile"}, ids)

	assert.Equal(t, 6, svc.Registry().Len())
	assert.Len(t, svc.Monitor().Registrations(), 6)
	db.AssertRowCount(t, "stores", 6)
}

func TestRefreshStoresKeepsLastGoodSet(t *testing.T) {
	finder := &fakeFinder{stores: []models.StoreLocation{storeAt("a", 20), storeAt("b", 400)}}
	svc, db := newService(t, finder)
	ctx := context.Background()

	_, err := svc.RefreshStores(ctx)
	require.NoError(t, err)

	finder.stores = nil
	finder.err = &models.ProviderError{Kind: models.ProviderNetwork, Op: "nearby", Err: errors.New("timeout")}

	_, err = svc.RefreshStores(ctx)
	kind, ok := models.ProviderKind(err)
	require.True(t, ok)
	assert.Equal(t, models.ProviderNetwork, kind)

	assert.Equal(t, 2, svc.Registry().Len())
	db.AssertRowCount(t, "stores", 2)
}

func TestRefreshStoresRejectsInvalidBatch(t *testing.T) {
	finder := &fakeFinder{stores: []models.StoreLocation{storeAt("a", 20)}}
	svc, db := newService(t, finder)
	ctx := context.Background()

	_, err := svc.RefreshStores(ctx)
	require.NoError(t, err)

	bad := storeAt("b", 10)
	bad.Latitude = 123
	finder.stores = []models.StoreLocation{storeAt("c", 30), bad}

	_, err = svc.RefreshStores(ctx)
	assert.True(t, models.IsValidation(err))

	_, ok := svc.Registry().Lookup("a")
	assert.True(t, ok)
	db.AssertRowCount(t, "stores", 1)
}

func TestRefreshStoresPositionUnavailable(t *testing.T) {
	finder := &fakeFinder{}
	svc, _ := newService(t, finder, WithProvider(location.Disabled{}))

	_, err := svc.RefreshStores(context.Background())
	kind, _ := models.ProviderKind(err)
	assert.Equal(t, models.ProviderUnauthorized, kind)
	assert.Zero(t, finder.calls)
}

func TestHydrateLoadsStorage(t *testing.T) {
	finder := &fakeFinder{}
	svc, db := newService(t, finder)
	ctx := context.Background()

	pantryRepo := repository.NewPantryRepository(db.DB)
	_, err := pantryRepo.Upsert(ctx, nil, testutil.FixtureLowItem("Milk"))
	require.NoError(t, err)
	require.NoError(t, repository.NewStoreRepository(db.DB).ReplaceAll(ctx,
		[]models.StoreLocation{storeAt("s1", 0)}, time.Now()))

	require.NoError(t, svc.Hydrate(ctx))

	assert.Equal(t, 1, svc.Registry().Len())
	assert.Equal(t, []string{"Milk"}, svc.tracker.LowStockNames())

	nearest, err := svc.Nearest(ctx)
	require.NoError(t, err)
	require.Len(t, nearest, 1)
	assert.Equal(t, "s1", nearest[0].Store.ID)
}

func TestRunRemindsOnEntry(t *testing.T) {
	finder := &fakeFinder{}
	svc, db := newService(t, finder, WithProvider(location.Disabled{}))
	ctx := context.Background()

	require.NoError(t, repository.NewStoreRepository(db.DB).ReplaceAll(ctx,
		[]models.StoreLocation{storeAt("corner", 0)}, time.Now()))
	_, err := svc.Pantry().Set(ctx, pantry.SetItemInput{ID: "milk", Name: "Milk", Quantity: 1, Threshold: 2})
	require.NoError(t, err)

	events, cancelSub := svc.Engine().Subscribe(4)
	defer cancelSub()

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()

	// Positions posted to the feed reach the engine even when the
	// configured source is something else. Publishing repeats until the
	// forwarder is watching; later entries are debounced.
	var ev models.ReminderEvent
	require.Eventually(t, func() bool {
		_ = svc.Feed().Publish(geo.Offset(home, 20, 0))
		select {
		case ev = <-events:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "corner", ev.StoreID)
	assert.Equal(t, []string{"Milk"}, ev.Items)
	assert.Equal(t, models.DwellInside, svc.Engine().State("corner"))

	stop()
	require.NoError(t, <-done)

	// History sink ran before Run returned.
	n, err := svc.Reminders().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunStopsWhenRunnerReturns(t *testing.T) {
	svc, _ := newService(t, &fakeFinder{})

	runnerErr := errors.New("http server failed")
	err := svc.Run(context.Background(), func(ctx context.Context) error {
		return runnerErr
	})
	assert.ErrorIs(t, err, runnerErr)

	err = svc.Run(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}
