// Package coordinator runs the head tier of a scan. The requested range is
// split across head tasks, each head task runs its own worker pool, and the
// per-head results are merged in sub-range order.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tierscan/internal/models"
	"tierscan/internal/partition"
	"tierscan/internal/pool"
	"tierscan/internal/scanner"
)

// DefaultMaxConcurrency caps Heads * LocalWorkers.
const DefaultMaxConcurrency = 20000

// ErrInvalidConfig is returned before any work starts when a request cannot
// be scanned.
var ErrInvalidConfig = errors.New("invalid scan configuration")

// Request describes one scan.
type Request struct {
	IP           [4]byte
	Range        models.PortRange
	Heads        int
	LocalWorkers int
}

// Footprint is the peak number of concurrently probing workers. It is only
// meaningful for a request that passed Validate.
func (r Request) Footprint() int {
	return r.Heads * r.LocalWorkers
}

// ExceedsLimit reports whether heads * workers is above limit without
// computing the product, so huge counts cannot wrap around.
func ExceedsLimit(heads, workers, limit int) bool {
	if heads < 1 || workers < 1 {
		return false
	}
	return heads > limit || workers > limit/heads
}

// Coordinator dispatches head tasks and merges their results.
type Coordinator struct {
	prober         scanner.Prober
	logger         *slog.Logger
	notify         scanner.NotifyFunc
	maxConcurrency int
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithNotify registers a callback invoked for every open port discovered.
func WithNotify(fn scanner.NotifyFunc) Option {
	return func(c *Coordinator) { c.notify = fn }
}

// WithMaxConcurrency overrides DefaultMaxConcurrency.
func WithMaxConcurrency(n int) Option {
	return func(c *Coordinator) { c.maxConcurrency = n }
}

// New creates a Coordinator probing with p.
func New(p scanner.Prober, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		prober:         p,
		logger:         logger.With(slog.String("component", "coordinator")),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks req against the coordinator's limits.
func (c *Coordinator) Validate(req Request) error {
	switch {
	case c.prober == nil:
		return fmt.Errorf("%w: no prober configured", ErrInvalidConfig)
	case req.Heads < 1:
		return fmt.Errorf("%w: head count must be at least 1, got %d", ErrInvalidConfig, req.Heads)
	case req.LocalWorkers < 1:
		return fmt.Errorf("%w: local worker count must be at least 1, got %d", ErrInvalidConfig, req.LocalWorkers)
	case !req.Range.Valid():
		return fmt.Errorf("%w: low port %d is above high port %d", ErrInvalidConfig, req.Range.Low, req.Range.High)
	case c.maxConcurrency > 0 && ExceedsLimit(req.Heads, req.LocalWorkers, c.maxConcurrency):
		return fmt.Errorf("%w: %d heads x %d workers exceeds the limit of %d concurrent probes",
			ErrInvalidConfig, req.Heads, req.LocalWorkers, c.maxConcurrency)
	}
	return nil
}

// Scan runs req to completion. Any failure aborts the whole scan; partial
// results are never returned.
func (c *Coordinator) Scan(ctx context.Context, req Request) (*models.ScanResult, error) {
	if err := c.Validate(req); err != nil {
		return nil, err
	}

	base := models.Target{IP: req.IP}
	c.logger.Info("Dispatching head tasks.",
		"target", base.AddrPort().Addr().String(),
		"range", req.Range.String(),
		"heads", req.Heads,
		"local_workers", req.LocalWorkers,
	)

	start := time.Now()
	lists, err := partition.Run(ctx, req.Range, req.Heads, func(ctx context.Context, head int, sub models.PortRange) ([]uint16, error) {
		p, err := pool.New(req.LocalWorkers, sub, base, pool.Options{
			Prober: c.prober,
			Logger: c.logger,
			Notify: c.notify,
			Head:   head,
		})
		if err != nil {
			return nil, err
		}
		ports, err := p.Run(ctx)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("Head task finished.", "head", head, "range", sub.String(), "open", len(ports))
		return ports, nil
	})
	if err != nil {
		c.logger.Error("Scan aborted.", "error", err)
		return nil, err
	}

	total := 0
	for _, l := range lists {
		total += len(l)
	}
	ports := make([]uint16, 0, total)
	for _, l := range lists {
		ports = append(ports, l...)
	}
	elapsed := time.Since(start)

	c.logger.Info("Scan complete.", "open", len(ports), "duration", elapsed)
	return &models.ScanResult{
		IP:      req.IP,
		Range:   req.Range,
		Ports:   ports,
		Elapsed: elapsed,
	}, nil
}
