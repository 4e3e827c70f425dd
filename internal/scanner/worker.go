package scanner

import (
	"context"
	"log/slog"

	"tierscan/internal/models"
)

// NotifyFunc receives a progress event for every open port found.
type NotifyFunc func(models.Discovery)

// Worker probes every port of its task in order and reports open ones to a
// shared collector.
type Worker struct {
	ID        int
	Head      int
	Task      models.ScanTask
	Prober    Prober
	Collector *Collector
	Notify    NotifyFunc
	Logger    *slog.Logger
}

// Run probes the task sequentially. Closed ports are not errors; the only
// error returned is the context's when the scan is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workerLogger := logger.With(slog.Int("head", w.Head), slog.Int("worker_id", w.ID))
	workerLogger.Debug("Worker started.", "range", w.Task.Ports.String())

	for p := int(w.Task.Ports.Low); p < int(w.Task.Ports.High); p++ {
		if err := ctx.Err(); err != nil {
			workerLogger.Debug("Context canceled. Stopping worker.", "next_port", p)
			return err
		}
		port := uint16(p)
		if !w.Prober.Probe(ctx, w.Task.Base.WithPort(port)) {
			continue
		}
		w.Collector.Add(port)
		if w.Notify != nil {
			w.Notify(models.Discovery{Port: port, Head: w.Head, WorkerID: w.ID})
		}
	}

	workerLogger.Debug("Worker finished.")
	return nil
}
