package location

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/models"
)

const defaultWatchBuffer = 16

// Feed is a provider driven by Publish, used for positions posted over HTTP.
type Feed struct {
	logger *zap.Logger

	mu       sync.Mutex
	last     *models.Coordinate
	waiters  []chan models.Coordinate
	watchers map[chan models.Coordinate]struct{}
	dropped  uint64
}

// NewFeed returns an empty feed.
func NewFeed(logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		logger:   logger.Named("location.feed"),
		watchers: make(map[chan models.Coordinate]struct{}),
	}
}

// Publish validates coord and fans it out to every watcher. A watcher whose
// buffer is full misses the update.
func (f *Feed) Publish(coord models.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = &coord
	for _, w := range f.waiters {
		w <- coord
		close(w)
	}
	f.waiters = nil

	for w := range f.watchers {
		select {
		case w <- coord:
		default:
			f.dropped++
			f.logger.Warn("position dropped for slow watcher", zap.Stringer("position", coord))
		}
	}
	return nil
}

// Last returns the most recently published position.
func (f *Feed) Last() (models.Coordinate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return models.Coordinate{}, false
	}
	return *f.last, true
}

// Dropped reports how many updates slow watchers missed.
func (f *Feed) Dropped() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// RequestOnce returns the last published position, or waits for the next one.
func (f *Feed) RequestOnce(ctx context.Context) (models.Coordinate, error) {
	f.mu.Lock()
	if f.last != nil {
		c := *f.last
		f.mu.Unlock()
		return c, nil
	}
	w := make(chan models.Coordinate, 1)
	f.waiters = append(f.waiters, w)
	f.mu.Unlock()

	select {
	case c := <-w:
		return c, nil
	case <-ctx.Done():
		f.removeWaiter(w)
		return models.Coordinate{}, ctx.Err()
	}
}

func (f *Feed) removeWaiter(w chan models.Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, x := range f.waiters {
		if x == w {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

// Watch streams every position published after the call.
func (f *Feed) Watch(ctx context.Context) <-chan models.Coordinate {
	w := make(chan models.Coordinate, defaultWatchBuffer)

	f.mu.Lock()
	f.watchers[w] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.watchers, w)
		close(w)
		f.mu.Unlock()
	}()
	return w
}
