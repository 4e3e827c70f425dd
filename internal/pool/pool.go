// Package pool runs the local tier of a scan: one sub-range split across a
// fixed number of scanner workers that share a single collector.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tierscan/internal/models"
	"tierscan/internal/partition"
	"tierscan/internal/scanner"
)

// DefaultWorkers is the local worker count used when none is configured.
const DefaultWorkers = 50

// ErrInvalidPool is returned by New for unusable parameters.
var ErrInvalidPool = errors.New("invalid worker pool")

// Options carries the collaborators shared by every worker of a pool.
type Options struct {
	Prober scanner.Prober
	Logger *slog.Logger
	Notify scanner.NotifyFunc
	// Head identifies the owning head task in logs and discoveries.
	Head int
}

// Pool scans one sub-range with Workers concurrent scanner workers.
type Pool struct {
	workers   int
	ports     models.PortRange
	base      models.Target
	opts      Options
	collector *scanner.Collector
	logger    *slog.Logger
}

// New builds a pool for ports [r.Low, r.High) on base.
func New(workers int, r models.PortRange, base models.Target, opts Options) (*Pool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: worker count must be at least 1, got %d", ErrInvalidPool, workers)
	}
	if !r.Valid() {
		return nil, fmt.Errorf("%w: range %s is inverted", ErrInvalidPool, r)
	}
	if opts.Prober == nil {
		return nil, fmt.Errorf("%w: no prober", ErrInvalidPool)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		workers:   workers,
		ports:     r,
		base:      base,
		opts:      opts,
		collector: scanner.NewCollector(0),
		logger:    logger.With(slog.String("component", "pool"), slog.Int("head", opts.Head)),
	}, nil
}

// Run starts one worker per chunk, waits for all of them and returns the open
// ports in arrival order. A pool can only be run once.
func (p *Pool) Run(ctx context.Context) ([]uint16, error) {
	p.logger.Debug("Starting scanner workers.", "range", p.ports.String(), "workers", p.workers)

	_, err := partition.Run(ctx, p.ports, p.workers, func(ctx context.Context, id int, chunk models.PortRange) (struct{}, error) {
		w := &scanner.Worker{
			ID:        id,
			Head:      p.opts.Head,
			Task:      models.ScanTask{Base: p.base, Ports: chunk},
			Prober:    p.opts.Prober,
			Collector: p.collector,
			Notify:    p.opts.Notify,
			Logger:    p.logger,
		}
		return struct{}{}, w.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.ports, err)
	}

	ports, err := p.collector.Drain()
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Scanner workers joined.", "open", len(ports))
	return ports, nil
}
