package models

import (
	"fmt"
	"net/netip"
	"time"
)

// PortRange is a half-open range of TCP ports, [Low, High).
type PortRange struct {
	Low  uint16 `json:"low" yaml:"low"`
	High uint16 `json:"high" yaml:"high"`
}

// Len returns the number of ports in the range, or 0 if it is inverted.
func (r PortRange) Len() int {
	if r.High <= r.Low {
		return 0
	}
	return int(r.High) - int(r.Low)
}

// Valid reports whether Low <= High.
func (r PortRange) Valid() bool {
	return r.Low <= r.High
}

// Empty reports whether the range holds no ports.
func (r PortRange) Empty() bool {
	return r.Len() == 0
}

// Contains reports whether port p falls inside the range.
func (r PortRange) Contains(p uint16) bool {
	return p >= r.Low && p < r.High
}

func (r PortRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Low, r.High)
}

// Target is an IPv4 endpoint. It is a plain value and safe to copy.
type Target struct {
	IP   [4]byte
	Port uint16
}

// WithPort returns a copy of t pointing at port p.
func (t Target) WithPort(p uint16) Target {
	t.Port = p
	return t
}

// AddrPort converts t to a netip.AddrPort.
func (t Target) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom4(t.IP), t.Port)
}

func (t Target) String() string {
	return t.AddrPort().String()
}

// ScanTask is the slice of work owned by a single scanner worker.
type ScanTask struct {
	Base  Target
	Ports PortRange
}

// ScanResult is the merged outcome of a whole scan. Ports are ordered by
// sub-range, and by discovery within a sub-range.
type ScanResult struct {
	IP      [4]byte
	Range   PortRange
	Ports   []uint16
	Elapsed time.Duration
}

// Discovery is emitted each time a worker finds an open port.
type Discovery struct {
	Port     uint16
	Head     int
	WorkerID int
}
