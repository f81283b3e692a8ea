package location

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/models"
)

// DefaultTraceInterval spaces replayed points when none is configured.
const DefaultTraceInterval = time.Second

// TraceProvider replays a recorded list of positions.
type TraceProvider struct {
	points   []models.Coordinate
	interval time.Duration
	logger   *zap.Logger
}

// LoadTrace reads a trace file of "lat,lon" lines. Blank lines and lines
// starting with # are ignored.
func LoadTrace(path string, interval time.Duration, logger *zap.Logger) (*TraceProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	points, err := ParseTrace(f)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", path, err)
	}
	return NewTrace(points, interval, logger)
}

// NewTrace returns a provider that replays points.
func NewTrace(points []models.Coordinate, interval time.Duration, logger *zap.Logger) (*TraceProvider, error) {
	if len(points) == 0 {
		return nil, errors.New("trace has no positions")
	}
	if interval <= 0 {
		interval = DefaultTraceInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraceProvider{points: points, interval: interval, logger: logger.Named("location.trace")}, nil
}

// ParseTrace decodes "lat,lon" records.
func ParseTrace(r io.Reader) ([]models.Coordinate, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var points []models.Coordinate
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		c := models.Coordinate{Latitude: lat, Longitude: lon}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, c)
	}
	return points, nil
}

// Len returns the number of recorded positions.
func (t *TraceProvider) Len() int {
	return len(t.points)
}

// RequestOnce returns the first recorded position.
func (t *TraceProvider) RequestOnce(ctx context.Context) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, err
	}
	return t.points[0], nil
}

// Watch emits the first position immediately and one more per interval,
// closing after the last.
func (t *TraceProvider) Watch(ctx context.Context) <-chan models.Coordinate {
	ch := make(chan models.Coordinate)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for i, p := range t.points {
			if i > 0 {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				}
			}
			select {
			case ch <- p:
			case <-ctx.Done():
				return
			}
		}
		t.logger.Debug("trace replay finished", zap.Int("points", len(t.points)))
	}()
	return ch
}
