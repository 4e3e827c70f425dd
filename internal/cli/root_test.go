package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return listener.Addr().(*net.TCPAddr).Port
}

func TestExecute_ScansLoopback(t *testing.T) {
	port := listen(t)
	csvPath := filepath.Join(t.TempDir(), "open.csv")
	var out, errOut bytes.Buffer

	code := Execute(context.Background(), []string{
		"--ip", "127.0.0.1",
		"--low", fmt.Sprint(port),
		"--high", fmt.Sprint(port + 1),
		"--heads", "1",
		"--workers", "2",
		"--timeout", "500ms",
		"--output", csvPath,
	}, &out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Open ports:\n"+fmt.Sprint(port)+" (TCP")
	assert.Contains(t, out.String(), "Scan took")
	assert.Contains(t, errOut.String(), "Found open port.")

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"127.0.0.1", fmt.Sprint(port)}, records[1][:2])
}

func TestExecute_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing ip", args: []string{"--low", "1", "--high", "10"}, want: "missing required target address"},
		{name: "bad ip", args: []string{"--ip", "1.2.3.999", "--high", "10"}, want: "invalid IPv4 address"},
		{name: "zero heads", args: []string{"--ip", "127.0.0.1", "--high", "10", "-t", "0"}, want: "--heads must be a positive integer"},
		{name: "inverted range", args: []string{"--ip", "127.0.0.1", "-l", "10", "--high", "5"}, want: "low port 10 is above high port 5"},
		{name: "positional args", args: []string{"127.0.0.1"}, want: "unknown command"},
		{name: "unknown profile", args: []string{"--ip", "127.0.0.1", "--config", "/does/not/exist.yaml"}, want: "open config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := Execute(context.Background(), tt.args, &out, &errOut)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut.String(), tt.want)
			assert.Empty(t, out.String(), "no report on a configuration error")
		})
	}
}

func TestExecute_EmptyRange(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"--ip", "127.0.0.1", "--ports", "80-80"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Open ports:\nnone\n")
}

func TestExecute_ProfileWithFlagOverride(t *testing.T) {
	port := listen(t)
	path := filepath.Join(t.TempDir(), "scan.yaml")
	profile := fmt.Sprintf("ip: 127.0.0.1\nports: %d-%d\nheads: 3\nlocal_workers: 7\nlog_level: debug\n", port, port+1)
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))

	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"--config", path, "--heads", "1", "--log-level", "WARN"}, &out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), fmt.Sprint(port)+" (TCP")
	assert.NotContains(t, errOut.String(), "Configuration loaded.", "flag log level overrides the profile")
}

func TestExecute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	code := Execute(ctx, []string{"--ip", "127.0.0.1", "--ports", "1-100"}, &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "context canceled")
	assert.Empty(t, out.String())
}

func TestExecute_DebugLogsEachDiscoveryOnce(t *testing.T) {
	port := listen(t)
	var out, errOut bytes.Buffer

	code := Execute(context.Background(), []string{
		"--ip", "127.0.0.1",
		"--ports", fmt.Sprintf("%d-%d", port, port+1),
		"--log-level", "DEBUG",
	}, &out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Equal(t, 1, strings.Count(errOut.String(), "Found open port."), errOut.String())
}
