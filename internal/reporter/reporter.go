package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"

	"tierscan/internal/models"
)

// Reporter renders a finished scan for humans and, optionally, as CSV.
type Reporter struct {
	out    io.Writer
	logger *slog.Logger
	sorted bool
}

// New creates a Reporter printing to out. When sorted is true ports are
// printed in numeric order instead of discovery order.
func New(out io.Writer, sorted bool, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{out: out, sorted: sorted, logger: logger.With(slog.String("component", "reporter"))}
}

// ServiceName returns the IANA service name registered for a TCP port, or "".
func ServiceName(port uint16) string {
	s := layers.TCPPort(port).String() // "22(ssh)" or "8003"
	i := strings.IndexByte(s, '(')
	if i < 0 || !strings.HasSuffix(s, ")") {
		return ""
	}
	return s[i+1 : len(s)-1]
}

func (r *Reporter) ports(res *models.ScanResult) []uint16 {
	if !r.sorted {
		return res.Ports
	}
	ports := slices.Clone(res.Ports)
	slices.Sort(ports)
	return ports
}

// Print writes the open port list and the scan duration.
func (r *Reporter) Print(res *models.ScanResult) error {
	ports := r.ports(res)
	var b strings.Builder
	fmt.Fprintf(&b, "Scanned %s ports %s\n", netip.AddrFrom4(res.IP), res.Range)
	b.WriteString("Open ports:\n")
	if len(ports) == 0 {
		b.WriteString("none\n")
	}
	for i, p := range ports {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d (TCP", p)
		if name := ServiceName(p); name != "" {
			fmt.Fprintf(&b, " %s", name)
		}
		b.WriteString(")")
	}
	if len(ports) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Scan took %s\n", res.Elapsed)

	_, err := io.WriteString(r.out, b.String())
	return err
}

// CSVHeader returns the header row of the CSV export.
func CSVHeader() []string {
	return []string{"ip", "port", "protocol", "service"}
}

// WriteCSV writes one row per open port to path.
func (r *Reporter) WriteCSV(path string, res *models.ScanResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeader()); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	ip := netip.AddrFrom4(res.IP).String()
	for _, p := range r.ports(res) {
		if err := writer.Write([]string{ip, strconv.Itoa(int(p)), "tcp", ServiceName(p)}); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	r.logger.Info("Results written.", "file", path, "rows", len(res.Ports))
	return file.Close()
}
