package scanner

import (
	"context"
	"net"
	"time"

	"tierscan/internal/models"
)

// DefaultTimeout bounds a single connect attempt when none is configured.
const DefaultTimeout = time.Second

// Prober decides whether one TCP endpoint accepts connections.
type Prober interface {
	Probe(ctx context.Context, target models.Target) bool
}

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ConnectProber performs a full TCP handshake against the target.
type ConnectProber struct {
	Timeout time.Duration
	// Retries is the total number of attempts, including the first one.
	Retries int
	Dial    DialFunc
}

// NewConnectProber creates a ConnectProber using a net.Dialer with the given
// per-attempt timeout.
func NewConnectProber(timeout time.Duration, retries int) *ConnectProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retries < 1 {
		retries = 1
	}
	dialer := &net.Dialer{Timeout: timeout}
	return &ConnectProber{Timeout: timeout, Retries: retries, Dial: dialer.DialContext}
}

// Probe returns true as soon as one attempt connects. Refused, unreachable and
// timed-out attempts all count as closed.
func (p *ConnectProber) Probe(ctx context.Context, target models.Target) bool {
	address := target.String()
	attempts := p.Retries
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return false
		}
		if p.attempt(ctx, address) {
			return true
		}
	}
	return false
}

func (p *ConnectProber) attempt(ctx context.Context, address string) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dial := p.Dial
	if dial == nil {
		dial = (&net.Dialer{Timeout: timeout}).DialContext
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dial(dialCtx, "tcp", address)
	if err != nil {
		return false
	}
	shutdown(conn)
	return true
}

// shutdown closes both directions before releasing the socket.
func shutdown(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseRead()
		_ = tcp.CloseWrite()
	}
	_ = conn.Close()
}
