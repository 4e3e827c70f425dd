package testutils

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"tierscan/internal/models"
)

// SetupTestLogger creates a DEBUG level slog.Logger that writes to a buffer.
// The buffer is safe to read while goroutines are still logging.
func SetupTestLogger() (*slog.Logger, *SafeBuffer) {
	buf := &SafeBuffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), buf
}

// SafeBuffer is a bytes.Buffer guarded by a mutex.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// OracleProber reports a fixed set of ports as open and records every probe.
type OracleProber struct {
	Open map[uint16]bool

	mu    sync.Mutex
	calls map[uint16]int
}

// NewOracleProber returns an OracleProber that treats the given ports as open.
func NewOracleProber(open ...uint16) *OracleProber {
	m := make(map[uint16]bool, len(open))
	for _, p := range open {
		m[p] = true
	}
	return &OracleProber{Open: m, calls: map[uint16]int{}}
}

func (o *OracleProber) Probe(_ context.Context, target models.Target) bool {
	o.mu.Lock()
	o.calls[target.Port]++
	o.mu.Unlock()
	return o.Open[target.Port]
}

// Calls returns how many times each port was probed.
func (o *OracleProber) Calls() map[uint16]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[uint16]int, len(o.calls))
	for k, v := range o.calls {
		out[k] = v
	}
	return out
}

// Set returns ports as a set.
func Set(ports []uint16) map[uint16]bool {
	out := make(map[uint16]bool, len(ports))
	for _, p := range ports {
		out[p] = true
	}
	return out
}
