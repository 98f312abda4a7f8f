package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moffa90/go-uartfs/protocol"
)

// Request results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultTimeout  = "timeout"
	ResultFailed   = "failed"
)

// NewRegistry creates a registry with the Go and process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler exposing reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Protocol holds the link and device metrics.
// A nil *Protocol is valid and records nothing.
type Protocol struct {
	Requests        *prometheus.CounterVec   // labels: cmd, result
	RequestDuration *prometheus.HistogramVec // labels: cmd
	FrameErrors     *prometheus.CounterVec   // labels: kind
	StaleBytes      prometheus.Counter
	TransferBytes   *prometheus.CounterVec // labels: direction
	HeapFree        prometheus.Gauge
	StorageFree     prometheus.Gauge
	Uptime          prometheus.Gauge
}

// NewProtocol registers and returns the protocol metrics.
func NewProtocol(reg prometheus.Registerer) *Protocol {
	m := &Protocol{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uartfs_requests_total",
			Help: "Commands sent to the device by command and result.",
		}, []string{"cmd", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uartfs_request_duration_seconds",
			Help:    "Round-trip time of a command until its reply is decoded.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"cmd"}),
		FrameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uartfs_frame_errors_total",
			Help: "Rejected reply frames by kind (crc, framing).",
		}, []string{"kind"}),
		StaleBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uartfs_stale_bytes_total",
			Help: "Bytes discarded from the receive buffer before a command was sent.",
		}),
		TransferBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uartfs_transfer_bytes_total",
			Help: "File bytes moved by upload and download.",
		}, []string{"direction"}),
		HeapFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "uartfs_device_heap_free_bytes",
			Help: "Free heap reported by the last ping.",
		}),
		StorageFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "uartfs_device_storage_free_bytes",
			Help: "Free storage reported by the last ping.",
		}),
		Uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "uartfs_device_uptime_seconds",
			Help: "Device uptime reported by the last ping.",
		}),
	}
	reg.MustRegister(m.Requests, m.RequestDuration, m.FrameErrors, m.StaleBytes,
		m.TransferBytes, m.HeapFree, m.StorageFree, m.Uptime)
	return m
}

// ObserveRequest records one command exchange.
func (m *Protocol) ObserveRequest(cmd byte, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	name := protocol.CommandName(cmd)
	m.Requests.WithLabelValues(name, result).Inc()
	m.RequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// FrameError counts a rejected frame. kind is "crc" or "framing".
func (m *Protocol) FrameError(kind string) {
	if m == nil {
		return
	}
	m.FrameErrors.WithLabelValues(kind).Inc()
}

// AddStaleBytes counts bytes dropped before a send.
func (m *Protocol) AddStaleBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StaleBytes.Add(float64(n))
}

// AddTransferBytes counts file bytes; direction is "upload" or "download".
func (m *Protocol) AddTransferBytes(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TransferBytes.WithLabelValues(direction).Add(float64(n))
}

// SetStatus updates the device gauges from a ping reply.
func (m *Protocol) SetStatus(info *protocol.StatusInfo) {
	if m == nil || info == nil {
		return
	}
	m.HeapFree.Set(float64(info.HeapFree))
	m.StorageFree.Set(float64(info.StorageFree))
	m.Uptime.Set(float64(info.UptimeSeconds))
}
