// Package cli implements the tierscan command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tierscan/config"
	"tierscan/internal/coordinator"
	"tierscan/internal/logger"
	"tierscan/internal/models"
	"tierscan/internal/reporter"
	"tierscan/internal/scanner"
	"tierscan/pkg/utils"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewRootCommand builds the tierscan command. Results go to out, logs and
// errors to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	cfg := config.Default()
	var configPath string

	cmd := &cobra.Command{
		Use:   "tierscan --ip <addr> --low <port> --high <port> [--heads n]",
		Short: "Concurrent two-tier TCP connect scanner",
		Long: `tierscan finds the TCP ports of one IPv4 host that accept connections.

The range [low, high) is split across --heads head tasks. Each head task
splits its share again across --workers local workers, which probe their
ports one after another.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := applyProfile(cmd.Flags(), configPath, cfg); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg, out, errOut)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := cmd.Flags()
	f.StringVar(&cfg.IP, "ip", cfg.IP, "IPv4 address of the target (required)")
	f.Uint16VarP(&cfg.Low, "low", "l", cfg.Low, "first port to scan")
	f.Uint16Var(&cfg.High, "high", cfg.High, "port to stop at (exclusive)")
	f.StringVar(&cfg.Ports, "ports", cfg.Ports, "range as low-high, overrides --low/--high")
	f.IntVarP(&cfg.Heads, "heads", "t", cfg.Heads, "number of head tasks")
	f.IntVarP(&cfg.LocalWorkers, "workers", "w", cfg.LocalWorkers, "scanner workers per head task")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "connect timeout per attempt")
	f.IntVar(&cfg.Retries, "retries", cfg.Retries, "connect attempts per port")
	f.IntVar(&cfg.MaxConcurrency, "max-concurrency", cfg.MaxConcurrency, "upper bound for heads x workers")
	f.BoolVar(&cfg.Sort, "sort", cfg.Sort, "print open ports in numeric order")
	f.StringVarP(&cfg.OutputFile, "output", "o", cfg.OutputFile, "also write open ports to this CSV file")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "DEBUG, INFO, WARN or ERROR")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append logs to this file")
	f.StringVarP(&configPath, "config", "c", "", "YAML scan profile; explicit flags win")

	return cmd
}

// applyProfile loads the YAML profile into cfg, then re-applies every flag
// the user set explicitly.
func applyProfile(flags *pflag.FlagSet, path string, cfg *config.Config) error {
	explicit := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	if err := config.LoadFile(path, cfg); err != nil {
		return err
	}
	for name, value := range explicit {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("reapply --%s: %w", name, err)
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, out, errOut io.Writer) error {
	req, err := cfg.Request()
	if err != nil {
		return err
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	log, closeLog, err := logger.New(errOut, cfg.LogFile, level)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	log.Info("Configuration loaded.",
		"heads", req.Heads,
		"scanner_workers", req.Footprint(),
		"timeout", cfg.Timeout,
		"retries", cfg.Retries,
	)
	utils.CheckFileDescriptorLimit(log, req.Footprint())

	coord := coordinator.New(
		scanner.NewConnectProber(cfg.Timeout, cfg.Retries),
		log,
		coordinator.WithMaxConcurrency(cfg.MaxConcurrency),
		coordinator.WithNotify(func(d models.Discovery) {
			log.Info("Found open port.", "port", d.Port, "head", d.Head, "worker_id", d.WorkerID)
		}),
	)

	res, err := coord.Scan(ctx, req)
	if err != nil {
		return err
	}

	rep := reporter.New(out, cfg.Sort, log)
	if err := rep.Print(res); err != nil {
		return err
	}
	if cfg.OutputFile != "" {
		if err := rep.WriteCSV(cfg.OutputFile, res); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the command with args and returns the process exit status.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmd := NewRootCommand(out, errOut)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}
