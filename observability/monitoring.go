// Package observability keeps the relay's counters and builds point-in-time
// snapshots of its health for the telemetry worker and the admin API.
package observability

import (
	"chat-relay/contract"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is a snapshot of the relay. Process figures are zero when the
// platform does not expose them.
type Stats struct {
	StartedAt        time.Time `json:"started_at"`
	Connections      int       `json:"connections"`
	OnlineIdentities int       `json:"online_identities"`
	PresencePending  int       `json:"presence_pending"`
	MessagesStored   uint64    `json:"messages_stored"`
	MessagesRelayed  uint64    `json:"messages_relayed"`
	MessagesOffline  uint64    `json:"messages_offline"`
	RelaysDropped    uint64    `json:"relays_dropped"`
	PersistFailures  uint64    `json:"persist_failures"`
	TypingSignals    uint64    `json:"typing_signals"`
	ExternalEvents   uint64    `json:"external_events"`
	Goroutines       int       `json:"goroutines"`
	AllocMemMb       uint64    `json:"alloc_mem_mb"`
	NumGC            uint32    `json:"num_gc"`
	RSSBytes         uint64    `json:"rss_bytes"`
	CPUPercent       float64   `json:"cpu_percent"`
}

// MonitoringManager counts routing outcomes and broadcasts.
type MonitoringManager struct {
	log       *slog.Logger
	startedAt time.Time
	proc      *process.Process

	stored          atomic.Uint64
	relayed         atomic.Uint64
	offline         atomic.Uint64
	dropped         atomic.Uint64
	persistFailures atomic.Uint64
	typing          atomic.Uint64
	external        atomic.Uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	mm := &MonitoringManager{log: log, startedAt: time.Now().UTC()}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process stats unavailable", "error", err)
	} else {
		mm.proc = p
	}
	return mm
}

// RecordRoute counts the outcome of one routed message.
func (mm *MonitoringManager) RecordRoute(outcome contract.RouteOutcome, err error) {
	if err != nil {
		mm.persistFailures.Add(1)
		return
	}
	mm.stored.Add(1)
	switch outcome {
	case contract.OutcomeRelayed:
		mm.relayed.Add(1)
	case contract.OutcomeRecipientOffline:
		mm.offline.Add(1)
	case contract.OutcomeRelayDropped:
		mm.dropped.Add(1)
	}
}

func (mm *MonitoringManager) RecordTyping(delivered int) {
	mm.typing.Add(uint64(delivered))
}

func (mm *MonitoringManager) RecordExternal(delivered int) {
	mm.external.Add(uint64(delivered))
}

// Snapshot combines the counters with the live registry view.
func (mm *MonitoringManager) Snapshot(registry contract.IRegistry, presencePending int) Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := Stats{
		StartedAt:        mm.startedAt,
		Connections:      len(registry.Connections()),
		OnlineIdentities: registry.Count(),
		PresencePending:  presencePending,
		MessagesStored:   mm.stored.Load(),
		MessagesRelayed:  mm.relayed.Load(),
		MessagesOffline:  mm.offline.Load(),
		RelaysDropped:    mm.dropped.Load(),
		PersistFailures:  mm.persistFailures.Load(),
		TypingSignals:    mm.typing.Load(),
		ExternalEvents:   mm.external.Load(),
		Goroutines:       runtime.NumGoroutine(),
		AllocMemMb:       m.Alloc / 1024 / 1024,
		NumGC:            m.NumGC,
	}

	if mm.proc != nil {
		if memInfo, err := mm.proc.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		}
		if cpu, err := mm.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
