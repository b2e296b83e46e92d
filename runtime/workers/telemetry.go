package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

// TelemetryWorker logs a health snapshot of the relay at a fixed interval.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	snapshot       func() observability.Stats
}

func NewTelemetryWorker(log *slog.Logger,
	metricInterval time.Duration,
	snapshot func() observability.Stats) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log.With("component", "telemetry"),
		metricInterval: metricInterval,
		snapshot:       snapshot,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report(w.snapshot())
		}
	}
}

func (w *TelemetryWorker) report(stats observability.Stats) {
	w.log.Info("Relay stats",
		"connections", stats.Connections,
		"online", stats.OnlineIdentities,
		"presence_pending", stats.PresencePending,
		"messages_stored", stats.MessagesStored,
		"messages_relayed", stats.MessagesRelayed,
		"messages_offline", stats.MessagesOffline,
		"relays_dropped", stats.RelaysDropped,
		"persist_failures", stats.PersistFailures,
		"goroutines", stats.Goroutines,
		"rss_bytes", stats.RSSBytes,
		"cpu_percent", stats.CPUPercent)
}
