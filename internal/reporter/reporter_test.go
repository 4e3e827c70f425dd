package reporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierscan/internal/models"
	"tierscan/internal/testutils"
)

func sampleResult() *models.ScanResult {
	return &models.ScanResult{
		IP:      [4]byte{10, 0, 0, 5},
		Range:   models.PortRange{Low: 1, High: 9000},
		Ports:   []uint16{443, 22, 8003},
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "ssh", ServiceName(22))
	assert.Equal(t, "http", ServiceName(80))
}

func TestReporter_PrintDiscoveryOrder(t *testing.T) {
	var out bytes.Buffer
	res := sampleResult()
	require.NoError(t, New(&out, false, nil).Print(res))

	s := out.String()
	assert.Contains(t, s, "Scanned 10.0.0.5 ports [1,9000)")
	assert.Contains(t, s, "Open ports:\n443 (TCP https), 22 (TCP ssh), 8003 (TCP")
	assert.Contains(t, s, "Scan took 1.5s")
}

func TestReporter_PrintSortedLeavesResultAlone(t *testing.T) {
	var out bytes.Buffer
	res := sampleResult()
	require.NoError(t, New(&out, true, nil).Print(res))

	assert.Contains(t, out.String(), "22 (TCP ssh), 443 (TCP https), 8003 (TCP")
	assert.Equal(t, []uint16{443, 22, 8003}, res.Ports)
}

func TestReporter_PrintNoOpenPorts(t *testing.T) {
	var out bytes.Buffer
	res := &models.ScanResult{IP: [4]byte{127, 0, 0, 1}, Range: models.PortRange{Low: 5, High: 5}}
	require.NoError(t, New(&out, false, nil).Print(res))
	assert.Contains(t, out.String(), "Open ports:\nnone\n")
}

func TestReporter_WriteCSV(t *testing.T) {
	logger, logBuf := testutils.SetupTestLogger()
	path := filepath.Join(t.TempDir(), "results.csv")

	require.NoError(t, New(&bytes.Buffer{}, true, logger).WriteCSV(path, sampleResult()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"ip", "port", "protocol", "service"}, records[0])
	assert.Equal(t, []string{"10.0.0.5", "22", "tcp", "ssh"}, records[1])
	assert.Equal(t, []string{"10.0.0.5", "443", "tcp", "https"}, records[2])
	assert.Equal(t, "8003", records[3][1])
	assert.Contains(t, logBuf.String(), "Results written.")
}

func TestReporter_WriteCSVBadPath(t *testing.T) {
	err := New(&bytes.Buffer{}, false, nil).WriteCSV(filepath.Join(t.TempDir(), "nope", "out.csv"), sampleResult())
	assert.Error(t, err)
}
