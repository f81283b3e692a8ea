// Package advisor assembles the restock advisor: pantry, store registry,
// reminder engine, position source and store lookups, and supervises the
// long-running parts.
package advisor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/database"
	"github.com/stockup/stockup/internal/datasync"
	"github.com/stockup/stockup/internal/inventory"
	"github.com/stockup/stockup/internal/location"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/notify"
	"github.com/stockup/stockup/internal/places"
	"github.com/stockup/stockup/internal/reminder"
	"github.com/stockup/stockup/internal/repository"
	"github.com/stockup/stockup/internal/services/pantry"
	"github.com/stockup/stockup/internal/stores"
	"github.com/stockup/stockup/internal/util"
)

// StoreFinder looks up stores around a position.
type StoreFinder interface {
	Nearby(ctx context.Context, coord models.Coordinate, radiusMeters float64, category string) ([]models.StoreLocation, error)
}

// Runner is a long-running component supervised alongside the engine.
type Runner func(ctx context.Context) error

// Service owns every component of a running advisor.
type Service struct {
	cfg    *config.Config
	db     *database.DB
	clock  util.Clock
	logger *zap.Logger

	tracker   *inventory.Tracker
	registry  *stores.Registry
	monitor   *stores.InMemoryMonitor
	engine    *reminder.Engine
	pantry    *pantry.Service
	storeRepo *repository.StoreRepository
	reminders *repository.ReminderRepository

	finder   StoreFinder
	provider location.Provider
	feed     *location.Feed
	sinks    []notify.Sink
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the root logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the clock used for timestamps.
func WithClock(c util.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithFinder replaces the places client.
func WithFinder(f StoreFinder) Option {
	return func(s *Service) { s.finder = f }
}

// WithProvider replaces the configured position source.
func WithProvider(p location.Provider) Option {
	return func(s *Service) { s.provider = p }
}

// WithSink adds a reminder sink next to the log and history sinks.
func WithSink(sink notify.Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sink) }
}

// New wires an advisor over an open, migrated database.
func New(cfg *config.Config, db *database.DB, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		db:     db,
		clock:  util.SystemClock{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.feed = location.NewFeed(s.logger)
	if s.provider == nil {
		p, err := location.New(cfg.Location, cfg.Household.Home(), s.feed, s.logger)
		if err != nil {
			return nil, fmt.Errorf("creating position source: %w", err)
		}
		s.provider = p
	}
	if s.finder == nil {
		s.finder = places.New(cfg.Places, places.WithLogger(s.logger))
	}

	s.storeRepo = repository.NewStoreRepository(db)
	s.reminders = repository.NewReminderRepository(db)
	s.tracker = inventory.NewTracker()
	s.monitor = stores.NewInMemoryMonitor()
	s.registry = stores.NewRegistry(
		stores.WithRadius(cfg.Reminder.RadiusMeters),
		stores.WithMonitor(s.monitor),
	)

	sink := append(notify.Multi{
		notify.NewLogSink(s.logger),
		notify.NewHistorySink(s.reminders),
	}, s.sinks...)

	s.engine = reminder.New(s.tracker, s.registry, sink,
		reminder.WithClock(s.clock),
		reminder.WithLogger(s.logger),
		reminder.WithQueueSize(cfg.Reminder.QueueSize),
		reminder.WithNearestCount(cfg.Reminder.NearestCount),
	)
	s.pantry = pantry.NewService(db, s.tracker,
		pantry.WithNotifier(s.engine),
		pantry.WithClock(s.clock),
		pantry.WithLogger(s.logger),
	)
	s.logger = s.logger.Named("advisor")
	return s, nil
}

func (s *Service) Pantry() *pantry.Service                   { return s.pantry }
func (s *Service) Engine() *reminder.Engine                  { return s.engine }
func (s *Service) Registry() *stores.Registry                { return s.registry }
func (s *Service) Monitor() *stores.InMemoryMonitor          { return s.monitor }
func (s *Service) Feed() *location.Feed                      { return s.feed }
func (s *Service) Reminders() *repository.ReminderRepository { return s.reminders }
func (s *Service) DB() *database.DB                          { return s.db }

// Hydrate loads the pantry and the last fetched store set from storage and
// signals the engine. It also serves as the data sync reload.
func (s *Service) Hydrate(ctx context.Context) error {
	if err := s.pantry.Hydrate(ctx); err != nil {
		return err
	}

	list, err := s.storeRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("hydrating stores: %w", err)
	}
	if err := s.registry.ReplaceAll(list); err != nil {
		return fmt.Errorf("hydrating stores: %w", err)
	}
	s.engine.OnStoreSetChanged()
	return nil
}

// RefreshStores fetches stores around the current position, persists them
// and swaps them into the registry. On any failure the registry keeps its
// previous set and the error is returned.
func (s *Service) RefreshStores(ctx context.Context) ([]models.StoreDistance, error) {
	pos, err := s.provider.RequestOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting position: %w", err)
	}

	found, err := s.finder.Nearby(ctx, pos, s.cfg.Places.SearchRadiusMeters, s.cfg.Places.Category)
	if err != nil {
		s.logger.Warn("store lookup failed, keeping previous stores",
			zap.Stringer("position", pos),
			zap.Int("stores", s.registry.Len()),
			zap.Error(err))
		return nil, err
	}

	if err := s.storeRepo.ReplaceAll(ctx, found, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.registry.ReplaceAll(found); err != nil {
		return nil, fmt.Errorf("registering stores: %w", err)
	}
	s.engine.OnStoreSetChanged()

	nearest := reminder.NearestStores(pos, found, s.cfg.Reminder.NearestCount)
	fields := []zap.Field{zap.Stringer("position", pos), zap.Int("stores", len(found))}
	for i, d := range nearest {
		fields = append(fields, zap.String(fmt.Sprintf("nearest_%d", i+1), fmt.Sprintf("%s (%.0f m)", d.Store.Name, d.Meters)))
	}
	s.logger.Info("stores refreshed", fields...)
	return nearest, nil
}

// Nearest returns the registered stores closest to the current position.
func (s *Service) Nearest(ctx context.Context) ([]models.StoreDistance, error) {
	pos, err := s.provider.RequestOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting position: %w", err)
	}
	return s.engine.Nearest(pos)
}

// Run hydrates, starts the engine and feeds it positions until ctx is
// cancelled or any runner returns. The first runner error is returned.
func (s *Service) Run(ctx context.Context, runners ...Runner) error {
	if err := s.Hydrate(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	s.engine.Start(gctx)
	g.Go(func() error {
		<-gctx.Done()
		s.engine.Stop()
		return nil
	})

	g.Go(func() error {
		s.forward(gctx, s.provider)
		return nil
	})
	if s.provider != location.Provider(s.feed) {
		g.Go(func() error {
			s.forward(gctx, s.feed)
			return nil
		})
	}

	if s.cfg.Database.Watch && s.db.Path() != ":memory:" {
		w := datasync.New(s.db.Path(), s.Hydrate,
			datasync.WithDebounce(s.cfg.Database.WatchDebounce()),
			datasync.WithLogger(s.logger))
		g.Go(func() error { return w.Run(gctx) })
	}

	if s.cfg.Places.APIKey != "" && s.cfg.Location.Enabled {
		g.Go(func() error {
			if _, err := s.RefreshStores(gctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("initial store refresh failed", zap.Error(err))
			}
			return nil
		})
	}

	for _, r := range runners {
		r := r
		g.Go(func() error {
			defer cancel()
			return r(gctx)
		})
	}

	s.logger.Info("advisor running",
		zap.Int("pantry_items", s.tracker.Len()),
		zap.Int("stores", s.registry.Len()),
		zap.String("location_source", string(s.cfg.Location.Source)))

	err := g.Wait()
	s.logger.Info("advisor stopped")
	return err
}

func (s *Service) forward(ctx context.Context, p location.Provider) {
	for pos := range p.Watch(ctx) {
		if err := s.engine.OnPositionUpdate(pos); err != nil {
			s.logger.Warn("position rejected", zap.Stringer("position", pos), zap.Error(err))
		}
	}
}
