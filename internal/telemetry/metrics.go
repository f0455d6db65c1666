// Package telemetry exposes Prometheus metrics for the poll loop.
package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logx "streamnotify/pkg/logx"
)

var (
	once sync.Once

	// Counters
	Ticks             prometheus.Counter
	PollErrors        *prometheus.CounterVec
	NotificationsSent prometheus.Counter
	NotifyFailures    prometheus.Counter
	TasksProcessed    prometheus.Counter
	RecorderStarts    prometheus.Counter
	RecorderStops     prometheus.Counter

	// Histograms (seconds)
	TickDuration prometheus.Observer

	// Gauges
	LiveChannels prometheus.Gauge
	QueueDepth   prometheus.Gauge
	DiskFreeGB   prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		Ticks = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_ticks_total", Help: "Number of completed poll ticks"})
		PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{Name: "notify_poll_errors_total", Help: "Number of failed upstream polls"}, []string{"platform"})
		NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_messages_sent_total", Help: "Number of notification messages sent"})
		NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_messages_failed_total", Help: "Number of notification messages that failed to send"})
		TasksProcessed = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_tasks_processed_total", Help: "Number of queued tasks executed"})
		RecorderStarts = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_recorder_starts_total", Help: "Number of recordings started"})
		RecorderStops = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_recorder_stops_total", Help: "Number of recordings stopped"})
		TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "notify_tick_duration_seconds", Help: "Poll tick duration seconds", Buckets: prometheus.DefBuckets})
		LiveChannels = promauto.NewGauge(prometheus.GaugeOpts{Name: "notify_live_channels", Help: "Channels currently live"})
		QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{Name: "notify_queue_depth", Help: "Pending tasks in the queue"})
		DiskFreeGB = promauto.NewGauge(prometheus.GaugeOpts{Name: "notify_disk_free_gigabytes", Help: "Free space on the recording volume"})
	})
}

// IncPollError bumps the per-platform poll failure counter.
func IncPollError(platform string) {
	if PollErrors != nil {
		PollErrors.WithLabelValues(platform).Inc()
	}
}

// TimeFunc measures fn and records the duration in obs when non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Serve runs the /metrics endpoint until ctx is cancelled. addr empty
// disables the listener.
func Serve(ctx context.Context, addr string, log logx.Logger) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("metrics listening", logx.String("addr", addr))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
