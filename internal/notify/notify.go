// Package notify delivers reminder events to the household.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/models"
)

// Sink delivers one reminder.
type Sink interface {
	Deliver(ctx context.Context, event models.ReminderEvent) error
}

// LogSink writes reminders to the application log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("notify")}
}

func (s *LogSink) Deliver(_ context.Context, event models.ReminderEvent) error {
	s.logger.Info(event.Title(),
		zap.String("notification_id", event.NotificationID()),
		zap.String("store_id", event.StoreID),
		zap.Strings("items", event.Items),
		zap.String("body", event.Body()))
	return nil
}

// Recorder persists delivered reminders.
type Recorder interface {
	Insert(ctx context.Context, event models.ReminderEvent) error
}

// HistorySink records each reminder so it can be listed later.
type HistorySink struct {
	recorder Recorder
}

// NewHistorySink wraps a reminder store.
func NewHistorySink(r Recorder) *HistorySink {
	return &HistorySink{recorder: r}
}

func (s *HistorySink) Deliver(ctx context.Context, event models.ReminderEvent) error {
	if err := s.recorder.Insert(ctx, event); err != nil {
		return fmt.Errorf("recording reminder %s: %w", event.ID, err)
	}
	return nil
}

// Multi fans a reminder out to every sink. Every sink is tried; failures are
// joined.
type Multi []Sink

func (m Multi) Deliver(ctx context.Context, event models.ReminderEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
