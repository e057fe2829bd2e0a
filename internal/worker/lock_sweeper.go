package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type StaleLockReleaser interface {
	ReleaseStaleLocks(ctx context.Context) (int64, error)
}

// LockSweeper периодически снимает блокировки старше таймаута,
// не дожидаясь следующего запроса next.
type LockSweeper struct {
	*Periodic
	releaser StaleLockReleaser
	log      *zap.Logger
}

func NewLockSweeper(releaser StaleLockReleaser, interval time.Duration, log *zap.Logger) *LockSweeper {
	s := &LockSweeper{releaser: releaser, log: log}
	s.Periodic = NewPeriodic("lock-sweeper", interval, s.Sweep, log)
	return s
}

func (s *LockSweeper) Sweep(ctx context.Context) error {
	released, err := s.releaser.ReleaseStaleLocks(ctx)
	if err != nil {
		return err
	}
	if released > 0 {
		s.log.Info("Stale locks released", zap.Int64("count", released))
	}
	return nil
}
