package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task - одна итерация периодической задачи.
type Task func(ctx context.Context) error

// Periodic запускает задачу сразу после старта и затем по тикеру.
type Periodic struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	task     Task
	stopChan chan struct{}
	stopOnce sync.Once
	log      *zap.Logger
}

func NewPeriodic(name string, interval time.Duration, task Task, log *zap.Logger) *Periodic {
	return &Periodic{
		name:     name,
		interval: interval,
		timeout:  30 * time.Second,
		task:     task,
		stopChan: make(chan struct{}),
		log:      log.With(zap.String("worker", name)),
	}
}

func (w *Periodic) Name() string { return w.name }

func (w *Periodic) Start() {
	w.log.Info("Worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce()

	for {
		select {
		case <-ticker.C:
			w.runOnce()
		case <-w.stopChan:
			w.log.Info("Worker stopped")
			return
		}
	}
}

func (w *Periodic) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *Periodic) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.task(ctx); err != nil {
		w.log.Error("Worker iteration failed", zap.Error(err))
	}
}
