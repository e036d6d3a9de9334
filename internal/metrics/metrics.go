package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector is the server's single Prometheus collector set: commands
// served, credits, oplock breaks, active connections. Unlike the
// teacher's per-adapter NFS/S3/cache metrics interfaces, this server
// has one transport (SMB2), so one concrete struct covers it rather
// than an interface-plus-implementation split. A nil *Collector is
// safe to call every method on, so call sites don't need to branch on
// whether metrics are enabled.
type Collector struct {
	commandsTotal    *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	commandsInFlight *prometheus.GaugeVec

	bytesTransferred *prometheus.CounterVec

	creditsOutstanding prometheus.Histogram
	oplockBreaksTotal  *prometheus.CounterVec

	activeConnections     prometheus.Gauge
	connectionsAccepted   prometheus.Counter
	connectionsClosed     prometheus.Counter
	connectionsForceClosed prometheus.Counter

	openFiles prometheus.Gauge
}

// NewCollector builds a Prometheus-backed Collector. Returns nil if
// metrics are not enabled (InitRegistry not called), so construction
// sites can assign the result straight into a field that's used
// unconditionally afterward.
func NewCollector() *Collector {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &Collector{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbd_commands_total",
				Help: "Total number of SMB2 commands served, by command and status",
			},
			[]string{"command", "status"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "smbd_command_duration_milliseconds",
				Help: "Duration of SMB2 command handling in milliseconds, by command",
				Buckets: []float64{
					0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000,
				},
			},
			[]string{"command"},
		),
		commandsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smbd_commands_in_flight",
				Help: "Number of SMB2 commands currently being processed, by command",
			},
			[]string{"command"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbd_bytes_transferred_total",
				Help: "Total bytes read or written, by direction",
			},
			[]string{"direction"}, // "read", "write"
		),
		creditsOutstanding: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smbd_credits_granted",
				Help:    "Distribution of credits granted per response",
				Buckets: []float64{1, 8, 16, 32, 64, 128, 256, 512, 1024},
			},
		),
		oplockBreaksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbd_oplock_breaks_total",
				Help: "Total number of oplock/lease breaks initiated, by target level",
			},
			[]string{"to_level"},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "smbd_active_connections",
				Help: "Current number of accepted SMB2 connections",
			},
		),
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "smbd_connections_accepted_total",
				Help: "Total number of accepted connections",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "smbd_connections_closed_total",
				Help: "Total number of connections closed normally",
			},
		),
		connectionsForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "smbd_connections_force_closed_total",
				Help: "Total number of connections force-closed at shutdown timeout",
			},
		),
		openFiles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "smbd_open_files",
				Help: "Current number of open file handles across all connections",
			},
		),
	}
}

func (c *Collector) RecordCommand(command, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.commandsTotal.WithLabelValues(command, status).Inc()
	c.commandDuration.WithLabelValues(command).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (c *Collector) RecordCommandStart(command string) {
	if c == nil {
		return
	}
	c.commandsInFlight.WithLabelValues(command).Inc()
}

func (c *Collector) RecordCommandEnd(command string) {
	if c == nil {
		return
	}
	c.commandsInFlight.WithLabelValues(command).Dec()
}

func (c *Collector) RecordBytesTransferred(direction string, n uint64) {
	if c == nil {
		return
	}
	c.bytesTransferred.WithLabelValues(direction).Add(float64(n))
}

func (c *Collector) RecordCreditsGranted(n uint16) {
	if c == nil {
		return
	}
	c.creditsOutstanding.Observe(float64(n))
}

func (c *Collector) RecordOplockBreak(toLevel string) {
	if c == nil {
		return
	}
	c.oplockBreaksTotal.WithLabelValues(toLevel).Inc()
}

func (c *Collector) SetActiveConnections(n int32) {
	if c == nil {
		return
	}
	c.activeConnections.Set(float64(n))
}

func (c *Collector) RecordConnectionAccepted() {
	if c == nil {
		return
	}
	c.connectionsAccepted.Inc()
}

func (c *Collector) RecordConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsClosed.Inc()
}

func (c *Collector) RecordConnectionForceClosed() {
	if c == nil {
		return
	}
	c.connectionsForceClosed.Inc()
}

func (c *Collector) SetOpenFiles(n int) {
	if c == nil {
		return
	}
	c.openFiles.Set(float64(n))
}
