package reminder

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stockup/stockup/internal/geo"
	"github.com/stockup/stockup/internal/inventory"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/stores"
	"github.com/stockup/stockup/internal/util"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var home = models.Coordinate{Latitude: 40.7484, Longitude: -73.9857}

// recordingSink keeps every delivered event and can be told to fail.
type recordingSink struct {
	mu     sync.Mutex
	events []models.ReminderEvent
	err    error
}

func (s *recordingSink) Deliver(_ context.Context, ev models.ReminderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) Events() []models.ReminderEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ReminderEvent(nil), s.events...)
}

type fixture struct {
	tracker  *inventory.Tracker
	registry *stores.Registry
	sink     *recordingSink
	clock    *util.ManualClock
	engine   *Engine
	events   <-chan models.ReminderEvent
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		tracker:  inventory.NewTracker(),
		registry: stores.NewRegistry(),
		sink:     &recordingSink{},
		clock:    util.NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
	}
	opts = append([]Option{WithClock(f.clock)}, opts...)
	f.engine = New(f.tracker, f.registry, f.sink, opts...)

	ch, cancel := f.engine.Subscribe(16)
	f.events = ch
	f.engine.Start(context.Background())
	t.Cleanup(func() {
		cancel()
		f.engine.Stop()
	})
	return f
}

func (f *fixture) at(t *testing.T, northMeters float64) {
	t.Helper()
	require.NoError(t, f.engine.OnPositionUpdate(geo.Offset(home, northMeters, 0)))
}

// drain returns the events published so far. State is used as a barrier so
// every queued input has been handled.
func (f *fixture) drain(storeID string) []models.ReminderEvent {
	f.engine.State(storeID)
	var out []models.ReminderEvent
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func pantry(t *testing.T, tr *inventory.Tracker, items ...models.PantryItem) {
	t.Helper()
	for _, it := range items {
		require.NoError(t, tr.Upsert(it))
	}
}

var (
	milk = models.PantryItem{ID: "milk", Name: "Milk", Quantity: 1, Threshold: 2, Category: models.CategoryDairy}
	eggs = models.PantryItem{ID: "eggs", Name: "Eggs", Quantity: 12, Threshold: 6, Category: models.CategoryDairy}
	shop = models.StoreLocation{ID: "S", Name: "Corner Market", Address: "1 Main St", Latitude: home.Latitude, Longitude: home.Longitude}
)

func TestEngine_MilkEggsScenario(t *testing.T) {
	f := newFixture(t)
	pantry(t, f.tracker, milk, eggs)
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop}))
	f.engine.OnStoreSetChanged()

	// Entering at 50m fires once with only the low item.
	f.at(t, 50)
	events := f.drain("S")
	require.Len(t, events, 1)
	assert.Equal(t, "S", events[0].StoreID)
	assert.Equal(t, []string{"Milk"}, events[0].Items)
	assert.Equal(t, f.clock.Now(), events[0].TriggeredAt)
	assert.Equal(t, "You're near Corner Market", events[0].Title())
	assert.Equal(t, "Running low on: Milk", events[0].Body())
	assert.Equal(t, models.DwellInside, f.engine.State("S"))

	// Still inside at 60m: debounced.
	f.at(t, 60)
	assert.Empty(t, f.drain("S"))
	assert.Equal(t, models.DwellInside, f.engine.State("S"))

	// Leaving resets silently.
	f.at(t, 2000)
	assert.Empty(t, f.drain("S"))
	assert.Equal(t, models.DwellOutside, f.engine.State("S"))

	// Re-entry fires again.
	f.clock.Advance(time.Hour)
	f.at(t, 50)
	events = f.drain("S")
	require.Len(t, events, 1)
	assert.Equal(t, []string{"Milk"}, events[0].Items)
	assert.Equal(t, f.clock.Now(), events[0].TriggeredAt)

	f.engine.Stop()
	assert.Len(t, f.sink.Events(), 2, "sink gets every reminder exactly once")
}

func TestEngine_DebounceWhileInside(t *testing.T) {
	f := newFixture(t)
	pantry(t, f.tracker, milk)
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop}))

	for i := 0; i < 10; i++ {
		f.at(t, float64(i*5))
	}
	assert.Len(t, f.drain("S"), 1)
}

func TestEngine_NoReminderWhenNothingLow(t *testing.T) {
	f := newFixture(t)
	pantry(t, f.tracker, eggs)
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop}))

	f.at(t, 10)
	assert.Empty(t, f.drain("S"))
	assert.Equal(t, models.DwellInside, f.engine.State("S"), "entry still transitions to inside")

	// Becoming low while inside does not fire until the next entry.
	pantry(t, f.tracker, models.PantryItem{ID: "eggs", Name: "Eggs", Quantity: 0, Threshold: 6})
	f.engine.OnInventoryChanged()
	f.at(t, 20)
	assert.Empty(t, f.drain("S"))

	f.at(t, 500)
	f.at(t, 20)
	events := f.drain("S")
	require.Len(t, events, 1)
	assert.Equal(t, []string{"Eggs"}, events[0].Items)
}

func TestEngine_EmptyRegistryNeverFires(t *testing.T) {
	f := newFixture(t)
	pantry(t, f.tracker, milk)

	f.at(t, 0)
	assert.Empty(t, f.drain("S"))
	assert.Equal(t, models.DwellOutside, f.engine.State("S"))
}

func TestEngine_DeliveryFailureKeepsState(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := newFixture(t, WithLogger(zap.New(core)))
	f.sink.err = errors.New("notifications disabled")
	pantry(t, f.tracker, milk)
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop}))

	f.at(t, 10)
	require.Len(t, f.drain("S"), 1)
	assert.Equal(t, models.DwellInside, f.engine.State("S"))

	f.at(t, 20)
	assert.Empty(t, f.drain("S"), "failed delivery is not retried")

	f.engine.Stop()
	assert.Len(t, f.sink.Events(), 1)
	assert.Equal(t, 1, logs.FilterMessage("reminder delivery failed").Len())
}

func TestEngine_RejectsMalformedCoordinates(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		coord models.Coordinate
	}{
		{"Latitude too high", models.Coordinate{Latitude: 91, Longitude: 0}},
		{"Longitude too low", models.Coordinate{Latitude: 0, Longitude: -181}},
		{"NaN", models.Coordinate{Latitude: math.NaN(), Longitude: 0}},
		{"Inf", models.Coordinate{Latitude: 0, Longitude: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.engine.OnPositionUpdate(tt.coord)
			require.Error(t, err)
			assert.True(t, models.IsValidation(err))
		})
	}
}

func TestEngine_StoreSetChangePrunesState(t *testing.T) {
	f := newFixture(t)
	pantry(t, f.tracker, milk)
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop}))

	f.at(t, 10)
	require.Len(t, f.drain("S"), 1)

	other := models.StoreLocation{ID: "T", Name: "Other", Latitude: 41, Longitude: -74}
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{other}))
	f.engine.OnStoreSetChanged()
	assert.Equal(t, models.DwellOutside, f.engine.State("S"))

	// Restoring the store means the next update is a fresh entry.
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop, other}))
	f.engine.OnStoreSetChanged()
	f.at(t, 10)
	assert.Len(t, f.drain("S"), 1)
}

func TestEngine_MultipleStoresEnteredTogether(t *testing.T) {
	f := newFixture(t)
	pantry(t, f.tracker, milk)
	near := models.StoreLocation{ID: "N", Name: "Next Door", Latitude: home.Latitude, Longitude: home.Longitude}
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop, near}))

	f.at(t, 0)
	events := f.drain("S")
	require.Len(t, events, 2)
	got := map[string]bool{events[0].StoreID: true, events[1].StoreID: true}
	assert.True(t, got["S"] && got["N"])
}

func TestEngine_SlowSubscriberDropsEvents(t *testing.T) {
	f := newFixture(t)
	slow, cancel := f.engine.Subscribe(0)
	defer cancel()

	pantry(t, f.tracker, milk)
	require.NoError(t, f.registry.ReplaceAll([]models.StoreLocation{shop}))

	f.at(t, 0)
	// The buffered subscriber still gets the event.
	assert.Len(t, f.drain("S"), 1)

	select {
	case ev := <-slow:
		t.Fatalf("unbuffered subscriber should have been skipped, got %v", ev)
	default:
	}
}

func TestEngine_SubscriptionCancel(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.engine.Subscribe(1)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	e := New(inventory.NewTracker(), stores.NewRegistry(), nil)
	ch, _ := e.Subscribe(1)
	e.Start(context.Background())

	e.Stop()
	e.Stop()

	_, open := <-ch
	assert.False(t, open, "Stop closes subscriptions")

	// Inputs after stop are ignored.
	assert.NoError(t, e.OnPositionUpdate(home))
	e.OnInventoryChanged()
	assert.Equal(t, models.DwellOutside, e.State("S"))

	late, _ := e.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestEngine_StopWithoutStart(t *testing.T) {
	e := New(inventory.NewTracker(), stores.NewRegistry(), nil)
	e.Stop()
	e.Start(context.Background())
	assert.Equal(t, models.DwellOutside, e.State("S"))
}

func TestEngine_ContextCancelEndsLoop(t *testing.T) {
	e := New(inventory.NewTracker(), stores.NewRegistry(), nil, WithQueueSize(1))
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	cancel()

	// Once the loop is gone, inputs return without blocking.
	assert.NoError(t, e.OnPositionUpdate(home))
	assert.NoError(t, e.OnPositionUpdate(home))
	assert.NoError(t, e.OnPositionUpdate(home))
	e.Stop()
}

func TestEngine_Nearest(t *testing.T) {
	reg := stores.NewRegistry()
	e := New(inventory.NewTracker(), reg, nil, WithNearestCount(2))
	defer e.Stop()

	var set []models.StoreLocation
	for i, meters := range []float64{900, 10, 300} {
		c := geo.Offset(home, meters, 0)
		set = append(set, models.StoreLocation{ID: string(rune('a' + i)), Name: "x", Latitude: c.Latitude, Longitude: c.Longitude})
	}
	require.NoError(t, reg.ReplaceAll(set))

	got, err := e.Nearest(home)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Store.ID)
	assert.Equal(t, "c", got[1].Store.ID)

	_, err = e.Nearest(models.Coordinate{Latitude: 100})
	assert.True(t, models.IsValidation(err))
}
