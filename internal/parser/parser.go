package parser

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"tierscan/internal/models"
)

// ParseIPv4 parses a dotted-decimal IPv4 address. Hostnames, CIDR blocks and
// IPv6 literals are rejected.
func ParseIPv4(input string) ([4]byte, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return [4]byte{}, fmt.Errorf("empty IPv4 address")
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return [4]byte{}, fmt.Errorf("invalid IPv4 address %q: %w", input, err)
	}
	if !addr.Is4() {
		return [4]byte{}, fmt.Errorf("invalid IPv4 address %q: not an IPv4 address", input)
	}
	return addr.As4(), nil
}

// ParsePortRange parses "low-high" into the half-open range [low, high).
func ParsePortRange(input string) (models.PortRange, error) {
	parts := strings.Split(strings.TrimSpace(input), "-")
	if len(parts) != 2 {
		return models.PortRange{}, fmt.Errorf("invalid port range %q: want low-high", input)
	}
	low, err := parsePort(parts[0])
	if err != nil {
		return models.PortRange{}, fmt.Errorf("invalid port range %q: %w", input, err)
	}
	high, err := parsePort(parts[1])
	if err != nil {
		return models.PortRange{}, fmt.Errorf("invalid port range %q: %w", input, err)
	}
	if low > high {
		return models.PortRange{}, fmt.Errorf("invalid port range %q: low is above high", input)
	}
	return models.PortRange{Low: low, High: high}, nil
}

func parsePort(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(v), nil
}
