package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tierscan/internal/coordinator"
	"tierscan/internal/logger"
	"tierscan/internal/models"
	"tierscan/internal/parser"
	"tierscan/internal/pool"
	"tierscan/internal/scanner"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration settings for a scan run.
type Config struct {
	IP string `yaml:"ip"`
	// Ports, when set, takes precedence over Low and High.
	Ports string `yaml:"ports"`
	Low   uint16 `yaml:"low"`
	High  uint16 `yaml:"high"`

	Heads          int           `yaml:"heads"`
	LocalWorkers   int           `yaml:"local_workers"`
	Timeout        time.Duration `yaml:"timeout"`
	Retries        int           `yaml:"retries"`
	MaxConcurrency int           `yaml:"max_concurrency"`

	Sort       bool   `yaml:"sort"`
	OutputFile string `yaml:"output"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
}

// Default returns a Config with every optional setting filled in.
func Default() *Config {
	return &Config{
		Heads:          1,
		LocalWorkers:   pool.DefaultWorkers,
		Timeout:        scanner.DefaultTimeout,
		Retries:        1,
		MaxConcurrency: coordinator.DefaultMaxConcurrency,
		LogLevel:       "INFO",
	}
}

// LoadFile overlays the YAML profile at path onto cfg. Unknown keys are
// rejected.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	return nil
}

// Target parses the configured address.
func (c *Config) Target() ([4]byte, error) {
	ip, err := parser.ParseIPv4(c.IP)
	if err != nil {
		return ip, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return ip, nil
}

// PortRange returns the configured half-open range.
func (c *Config) PortRange() (models.PortRange, error) {
	if c.Ports != "" {
		r, err := parser.ParsePortRange(c.Ports)
		if err != nil {
			return r, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return r, nil
	}
	r := models.PortRange{Low: c.Low, High: c.High}
	if !r.Valid() {
		return r, fmt.Errorf("%w: low port %d is above high port %d", ErrInvalid, c.Low, c.High)
	}
	return r, nil
}

// Validate checks every field. It does no I/O.
func (c *Config) Validate() error {
	if c.IP == "" {
		return fmt.Errorf("%w: missing required target address (--ip)", ErrInvalid)
	}
	if _, err := c.Target(); err != nil {
		return err
	}
	if _, err := c.PortRange(); err != nil {
		return err
	}
	switch {
	case c.Heads < 1:
		return fmt.Errorf("%w: --heads must be a positive integer", ErrInvalid)
	case c.LocalWorkers < 1:
		return fmt.Errorf("%w: --workers must be a positive integer", ErrInvalid)
	case c.Retries < 1:
		return fmt.Errorf("%w: --retries must be a positive integer", ErrInvalid)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: --timeout must be positive", ErrInvalid)
	case c.MaxConcurrency < 1:
		return fmt.Errorf("%w: --max-concurrency must be a positive integer", ErrInvalid)
	case coordinator.ExceedsLimit(c.Heads, c.LocalWorkers, c.MaxConcurrency):
		return fmt.Errorf("%w: %d heads x %d workers exceeds --max-concurrency %d",
			ErrInvalid, c.Heads, c.LocalWorkers, c.MaxConcurrency)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Request converts a validated Config into a coordinator request.
func (c *Config) Request() (coordinator.Request, error) {
	if err := c.Validate(); err != nil {
		return coordinator.Request{}, err
	}
	ip, _ := c.Target()
	r, _ := c.PortRange()
	return coordinator.Request{IP: ip, Range: r, Heads: c.Heads, LocalWorkers: c.LocalWorkers}, nil
}
