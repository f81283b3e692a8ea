// Package reminder decides when to remind the household about low-stock items
// as the device enters the geofence of a nearby grocery store.
//
// All inputs are serialized through one buffered queue and handled by a single
// goroutine, so the per-store dwell table needs no locking.
package reminder

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stockup/stockup/internal/geo"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/util"
)

const (
	// DefaultQueueSize is the input queue capacity.
	DefaultQueueSize = 64

	// deliverTimeout bounds a single sink delivery.
	deliverTimeout = 10 * time.Second
)

// Inventory is the read side of the pantry tracker the engine needs.
type Inventory interface {
	LowStockNames() []string
}

// StoreSet is the read side of the store registry the engine needs.
type StoreSet interface {
	Current() []models.StoreLocation
	RadiusMeters() float64
}

// Sink delivers a reminder to the user. Delivery is fire-and-forget: errors
// are logged and never change engine state.
type Sink interface {
	Deliver(ctx context.Context, event models.ReminderEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event models.ReminderEvent) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, event models.ReminderEvent) error {
	return f(ctx, event)
}

type messageKind int

const (
	msgPosition messageKind = iota
	msgInventoryChanged
	msgStoreSetChanged
	msgState
)

type message struct {
	kind    messageKind
	coord   models.Coordinate
	storeID string
	reply   chan models.DwellState
}

// Engine is the proximity reminder state machine.
type Engine struct {
	inventory Inventory
	stores    StoreSet
	sink      Sink
	clock     util.Clock
	logger    *zap.Logger

	queueSize    int
	nearestCount int

	queue chan message
	quit  chan struct{}
	done  chan struct{}

	mu      sync.Mutex
	running bool
	stopped bool

	subsMu  sync.Mutex
	subs    map[int]chan models.ReminderEvent
	nextSub int

	deliveries sync.WaitGroup

	// states is owned by the loop goroutine. Stores absent from the map are
	// Outside.
	states map[string]models.DwellState
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used to stamp reminders.
func WithClock(c util.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithQueueSize sets the input queue capacity.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithNearestCount sets how many nearby stores are logged after each
// position update.
func WithNearestCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.nearestCount = n
		}
	}
}

// New creates an engine. A nil sink discards reminders; subscribers still
// receive them.
func New(inventory Inventory, stores StoreSet, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		inventory:    inventory,
		stores:       stores,
		sink:         sink,
		clock:        util.SystemClock{},
		logger:       zap.NewNop(),
		queueSize:    DefaultQueueSize,
		nearestCount: geo.DefaultNearestCount,
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		subs:         make(map[int]chan models.ReminderEvent),
		states:       make(map[string]models.DwellState),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	e.queue = make(chan message, e.queueSize)
	return e
}

// Start launches the processing loop. It returns immediately. The loop ends
// when ctx is cancelled or Stop is called. Calling Start more than once, or
// after Stop, does nothing.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running || e.stopped {
		return
	}
	e.running = true
	go e.loop(ctx)
}

// Stop ends the loop, waits for in-flight deliveries and closes every
// subscription channel. Queued inputs not yet processed are dropped.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	wasRunning := e.running
	close(e.quit)
	if !wasRunning {
		close(e.done)
	}
	e.mu.Unlock()

	<-e.done
	e.deliveries.Wait()

	e.subsMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subsMu.Unlock()
}

// OnPositionUpdate queues a new device position. Malformed coordinates are
// rejected synchronously.
func (e *Engine) OnPositionUpdate(coord models.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	e.enqueue(message{kind: msgPosition, coord: coord})
	return nil
}

// OnInventoryChanged signals that the pantry snapshot changed.
func (e *Engine) OnInventoryChanged() {
	e.enqueue(message{kind: msgInventoryChanged})
}

// OnStoreSetChanged signals that the store registry was replaced.
func (e *Engine) OnStoreSetChanged() {
	e.enqueue(message{kind: msgStoreSetChanged})
}

// State returns the dwell state for a store. The query goes through the
// input queue, so it observes every input queued before it.
func (e *Engine) State(storeID string) models.DwellState {
	reply := make(chan models.DwellState, 1)
	if !e.enqueue(message{kind: msgState, storeID: storeID, reply: reply}) {
		return models.DwellOutside
	}
	select {
	case st := <-reply:
		return st
	case <-e.done:
		return models.DwellOutside
	}
}

// Subscribe registers a reminder listener. Events are dropped for a
// subscriber whose buffer is full. The returned func cancels the
// subscription and closes the channel.
func (e *Engine) Subscribe(buffer int) (<-chan models.ReminderEvent, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan models.ReminderEvent, buffer)

	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		close(ch)
		return ch, func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subsMu.Lock()
			defer e.subsMu.Unlock()
			if c, ok := e.subs[id]; ok {
				close(c)
				delete(e.subs, id)
			}
		})
	}
}

// Nearest returns the closest registered stores to coord.
func (e *Engine) Nearest(coord models.Coordinate) ([]models.StoreDistance, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	return NearestStores(coord, e.stores.Current(), e.nearestCount), nil
}

// NearestStores orders stores by great-circle distance from origin, ties by
// store ID, and returns the first n (DefaultNearestCount when n <= 0).
func NearestStores(origin models.Coordinate, stores []models.StoreLocation, n int) []models.StoreDistance {
	return geo.Nearest(origin, stores, n)
}

// enqueue reports whether the message was accepted. It blocks only while the
// queue is full.
func (e *Engine) enqueue(m message) bool {
	select {
	case <-e.quit:
		return false
	case <-e.done:
		return false
	default:
	}

	select {
	case e.queue <- m:
		return true
	case <-e.quit:
		return false
	case <-e.done:
		return false
	}
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)

	e.logger.Debug("engine started", zap.Int("queue_size", e.queueSize))
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("engine context done", zap.Error(ctx.Err()))
			return
		case <-e.quit:
			e.logger.Debug("engine stopped")
			return
		case m := <-e.queue:
			e.handle(ctx, m)
		}
	}
}

func (e *Engine) handle(ctx context.Context, m message) {
	switch m.kind {
	case msgPosition:
		e.handlePosition(ctx, m.coord)
	case msgInventoryChanged:
		e.logger.Debug("inventory changed", zap.Int("low_stock", len(e.inventory.LowStockNames())))
	case msgStoreSetChanged:
		e.handleStoreSetChanged()
	case msgState:
		st, ok := e.states[m.storeID]
		if !ok {
			st = models.DwellOutside
		}
		m.reply <- st
	}
}

func (e *Engine) handlePosition(ctx context.Context, coord models.Coordinate) {
	stores := e.stores.Current()
	radius := e.stores.RadiusMeters()

	for _, s := range stores {
		meters := geo.Distance(coord, s.Coordinate())
		state := e.states[s.ID]

		switch {
		case meters <= radius && state == models.DwellOutside:
			e.states[s.ID] = models.DwellJustEntered
			e.logger.Debug("entered store region",
				zap.String("store_id", s.ID),
				zap.Float64("meters", meters))
			e.remind(ctx, s)
			e.states[s.ID] = models.DwellInside
		case meters > radius && state != models.DwellOutside:
			delete(e.states, s.ID)
			e.logger.Debug("left store region", zap.String("store_id", s.ID))
		}
	}

	if ce := e.logger.Check(zap.DebugLevel, "nearest stores"); ce != nil {
		ce.Write(
			zap.Stringer("position", coord),
			zap.Array("stores", nearestList(NearestStores(coord, stores, e.nearestCount))),
		)
	}
}

// remind evaluates the inventory at the instant of entry and emits at most
// one event.
func (e *Engine) remind(ctx context.Context, s models.StoreLocation) {
	items := e.inventory.LowStockNames()
	if len(items) == 0 {
		e.logger.Debug("nothing low on entry", zap.String("store_id", s.ID))
		return
	}

	event := models.ReminderEvent{
		ID:          util.NewID(),
		StoreID:     s.ID,
		StoreName:   s.Name,
		TriggeredAt: e.clock.Now(),
		Items:       items,
	}
	e.logger.Info("reminder triggered",
		zap.String("store_id", s.ID),
		zap.Strings("items", items))

	e.publish(event)

	if e.sink == nil {
		return
	}
	e.deliveries.Add(1)
	go func() {
		defer e.deliveries.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
		defer cancel()
		if err := e.sink.Deliver(dctx, event); err != nil {
			e.logger.Warn("reminder delivery failed",
				zap.String("store_id", event.StoreID),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}()
}

func (e *Engine) publish(event models.ReminderEvent) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	for id, ch := range e.subs {
		select {
		case ch <- event:
		default:
			e.logger.Warn("subscriber full, dropping reminder",
				zap.Int("subscriber", id),
				zap.String("event_id", event.ID))
		}
	}
}

func (e *Engine) handleStoreSetChanged() {
	active := make(map[string]struct{})
	for _, s := range e.stores.Current() {
		active[s.ID] = struct{}{}
	}

	pruned := 0
	for id := range e.states {
		if _, ok := active[id]; !ok {
			delete(e.states, id)
			pruned++
		}
	}
	e.logger.Info("store set changed",
		zap.Int("stores", len(active)),
		zap.Int("pruned", pruned))
}

// nearestList renders store distances as a zap array.
type nearestList []models.StoreDistance

func (l nearestList) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, nd := range l {
		if err := enc.AppendObject(storeDistance(nd)); err != nil {
			return err
		}
	}
	return nil
}

type storeDistance models.StoreDistance

func (d storeDistance) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", d.Store.ID)
	enc.AddString("name", d.Store.Name)
	enc.AddFloat64("meters", math.Round(d.Meters))
	return nil
}
