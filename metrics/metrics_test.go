package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-uartfs/protocol"
)

func TestProtocolCounters(t *testing.T) {
	m := NewProtocol(prometheus.NewRegistry())

	m.ObserveRequest(protocol.CmdPing, ResultOK, 3*time.Millisecond)
	m.ObserveRequest(protocol.CmdPing, ResultOK, 4*time.Millisecond)
	m.ObserveRequest(protocol.CmdFileList, ResultTimeout, 5*time.Second)
	m.FrameError("crc")
	m.AddStaleBytes(12)
	m.AddStaleBytes(0)
	m.AddTransferBytes("upload", 1025)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("ping", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("list", ResultTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FrameErrors.WithLabelValues("crc")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.StaleBytes))
	assert.Equal(t, 1025.0, testutil.ToFloat64(m.TransferBytes.WithLabelValues("upload")))
}

func TestProtocolSetStatus(t *testing.T) {
	m := NewProtocol(prometheus.NewRegistry())
	m.SetStatus(&protocol.StatusInfo{HeapFree: 123456, StorageFree: 500000000, UptimeSeconds: 3600})

	assert.Equal(t, 123456.0, testutil.ToFloat64(m.HeapFree))
	assert.Equal(t, 500000000.0, testutil.ToFloat64(m.StorageFree))
	assert.Equal(t, 3600.0, testutil.ToFloat64(m.Uptime))
}

func TestNilProtocolIsSafe(t *testing.T) {
	var m *Protocol
	assert.NotPanics(t, func() {
		m.ObserveRequest(protocol.CmdReset, ResultOK, time.Millisecond)
		m.FrameError("framing")
		m.AddStaleBytes(3)
		m.AddTransferBytes("download", 3)
		m.SetStatus(&protocol.StatusInfo{})
	})
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewProtocol(reg)
	m.ObserveRequest(protocol.CmdFileInfo, ResultRejected, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `uartfs_requests_total{cmd="stat",result="rejected"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
