// Package location supplies device positions to the reminder engine.
package location

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/models"
)

// ErrDisabled is wrapped in an unauthorized ProviderError when location
// access is turned off.
var ErrDisabled = errors.New("location access is disabled")

// Provider yields positions. Watch channels close when ctx is done or the
// source is exhausted.
type Provider interface {
	RequestOnce(ctx context.Context) (models.Coordinate, error)
	Watch(ctx context.Context) <-chan models.Coordinate
}

// New builds the provider selected by the [location] section. feed backs the
// http source and may be nil for the others.
func New(cfg config.LocationConfig, home models.Coordinate, feed *Feed, logger *zap.Logger) (Provider, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}

	switch cfg.Source {
	case config.LocationSourceStatic, "":
		return NewStatic(home)
	case config.LocationSourceTrace:
		return LoadTrace(cfg.TraceFile, cfg.TraceInterval(), logger)
	case config.LocationSourceHTTP:
		if feed == nil {
			return nil, errors.New("http location source needs a feed")
		}
		return feed, nil
	default:
		return nil, fmt.Errorf("unknown location source %q", cfg.Source)
	}
}

// Disabled refuses every request.
type Disabled struct{}

func (Disabled) RequestOnce(context.Context) (models.Coordinate, error) {
	return models.Coordinate{}, &models.ProviderError{Kind: models.ProviderUnauthorized, Op: "location", Err: ErrDisabled}
}

func (Disabled) Watch(context.Context) <-chan models.Coordinate {
	ch := make(chan models.Coordinate)
	close(ch)
	return ch
}

// Static always reports one fixed position.
type Static struct {
	coord models.Coordinate
}

// NewStatic returns a provider fixed at coord.
func NewStatic(coord models.Coordinate) (*Static, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	return &Static{coord: coord}, nil
}

func (s *Static) RequestOnce(ctx context.Context) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, err
	}
	return s.coord, nil
}

// Watch emits the fixed position once.
func (s *Static) Watch(ctx context.Context) <-chan models.Coordinate {
	ch := make(chan models.Coordinate, 1)
	ch <- s.coord
	close(ch)
	return ch
}
