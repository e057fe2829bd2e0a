package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"orubacontacts/internal/models"
	"orubacontacts/internal/repository"
	"orubacontacts/internal/service"
	"orubacontacts/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPeriodic_RunsImmediatelyAndStops(t *testing.T) {
	var calls atomic.Int32
	w := NewPeriodic("test", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestPeriodic_LogsErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := NewPeriodic("failing", time.Hour, func(ctx context.Context) error {
		return errors.New("boom")
	}, zap.New(core))

	w.runOnce()

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failing", logs.All()[0].ContextMap()["worker"])
}

func TestScheduler(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(zap.NewNop())
	s.AddWorker(NewPeriodic("a", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, zap.NewNop()))
	s.AddWorker(NewPeriodic("b", time.Hour, func(ctx context.Context) error { return nil }, zap.NewNop()))

	assert.False(t, s.IsRunning())
	s.Start()
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	// повторный запуск после остановки игнорируется
	s.Start()
	assert.False(t, s.IsRunning())
}

func TestLockSweeper_Sweep(t *testing.T) {
	db := testutil.NewDB(t)
	clock := testutil.NewClock()
	svc := service.NewMatchingService(repository.NewStore(db), nil, service.MatchingConfig{
		LockTimeout:   10 * time.Minute,
		ClaimAttempts: 3,
		Now:           clock.Now,
	}, zap.NewNop())

	rec := testutil.CreateRecord(t, db, testutil.RecordFixture{Title: "Klinik", Phones: []string{"5321112233"}})
	_, err := svc.ClaimNext(context.Background(), "ayse")
	require.NoError(t, err)

	sweeper := NewLockSweeper(svc, time.Minute, zap.NewNop())

	clock.Advance(5 * time.Minute)
	require.NoError(t, sweeper.Sweep(context.Background()))
	var held models.RawRecord
	require.NoError(t, db.Take(&held, "id = ?", rec.ID).Error)
	require.NotNil(t, held.LockedBy)

	clock.Advance(6 * time.Minute)
	require.NoError(t, sweeper.Sweep(context.Background()))
	var released models.RawRecord
	require.NoError(t, db.Take(&released, "id = ?", rec.ID).Error)
	assert.Nil(t, released.LockedBy)
	assert.Nil(t, released.LockedAt)
}

type failingReleaser struct{}

func (failingReleaser) ReleaseStaleLocks(context.Context) (int64, error) {
	return 0, errors.New("database is gone")
}

func TestLockSweeper_Error(t *testing.T) {
	sweeper := NewLockSweeper(failingReleaser{}, time.Minute, zap.NewNop())
	assert.EqualError(t, sweeper.Sweep(context.Background()), "database is gone")
	assert.Equal(t, "lock-sweeper", sweeper.Name())
}
