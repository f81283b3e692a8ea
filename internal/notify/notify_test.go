package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/repository"
	"github.com/stockup/stockup/internal/testutil"
)

func event() models.ReminderEvent {
	return models.ReminderEvent{
		ID:          "r1",
		StoreID:     "s1",
		StoreName:   "Corner Grocer",
		TriggeredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items:       []string{"Eggs", "Milk"},
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Deliver(context.Background(), event()))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "You're near Corner Grocer", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "stockup.reminder.s1", fields["notification_id"])
	assert.Equal(t, "Running low on: Eggs, Milk", fields["body"])
}

func TestHistorySink(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewReminderRepository(db.DB)
	sink := NewHistorySink(repo)

	require.NoError(t, sink.Deliver(context.Background(), event()))

	got, err := repo.ListRecent(context.Background(), models.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Eggs", "Milk"}, got[0].Items)
}

type failingRecorder struct{}

func (failingRecorder) Insert(context.Context, models.ReminderEvent) error {
	return errors.New("disk full")
}

func TestHistorySinkWrapsError(t *testing.T) {
	err := NewHistorySink(failingRecorder{}).Deliver(context.Background(), event())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording reminder r1")
	assert.Contains(t, err.Error(), "disk full")
}

type countingSink struct {
	calls int
	err   error
}

func (c *countingSink) Deliver(context.Context, models.ReminderEvent) error {
	c.calls++
	return c.err
}

func TestMultiDeliversToAll(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	a := &countingSink{err: errA}
	b := &countingSink{}
	c := &countingSink{err: errC}

	err := Multi{a, b, c}.Deliver(context.Background(), event())

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi{}.Deliver(context.Background(), event()))
}
