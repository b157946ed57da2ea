// Package observability aggregates in-process counters and self stats for
// the debug endpoint. No external metrics backend is involved.
package observability

import (
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Metrics is the set of counters the pipeline and the gateway feed.
// All methods are safe for concurrent use.
type Metrics struct {
	messagesPersisted uint64
	eventsPublished   uint64
	eventsDelivered   uint64
	eventsDropped     uint64
	connections       int64
	subscriptions     int64
	startedAt         time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

func (m *Metrics) IncrMessagesPersisted() { atomic.AddUint64(&m.messagesPersisted, 1) }
func (m *Metrics) IncrEventsPublished()   { atomic.AddUint64(&m.eventsPublished, 1) }
func (m *Metrics) IncrEventsDelivered()   { atomic.AddUint64(&m.eventsDelivered, 1) }
func (m *Metrics) IncrEventsDropped()     { atomic.AddUint64(&m.eventsDropped, 1) }

func (m *Metrics) ConnectionOpened()     { atomic.AddInt64(&m.connections, 1) }
func (m *Metrics) ConnectionClosed()     { atomic.AddInt64(&m.connections, -1) }
func (m *Metrics) SubscriptionOpened()   { atomic.AddInt64(&m.subscriptions, 1) }
func (m *Metrics) SubscriptionClosed()   { atomic.AddInt64(&m.subscriptions, -1) }

// Stats is the JSON shape served on the debug endpoint.
type Stats struct {
	UptimeSeconds     int64   `json:"uptime_seconds"`
	MessagesPersisted uint64  `json:"messages_persisted"`
	EventsPublished   uint64  `json:"events_published"`
	EventsDelivered   uint64  `json:"events_delivered"`
	EventsDropped     uint64  `json:"events_dropped"`
	Connections       int64   `json:"connections"`
	Subscriptions     int64   `json:"subscriptions"`
	Goroutines        int     `json:"goroutines"`
	AllocMemMb        uint64  `json:"alloc_mem_mb"`
	NumGC             uint32  `json:"num_gc"`
	RssMb             uint64  `json:"rss_mb"`
	CPUPercent        float64 `json:"cpu_percent"`
}

// Snapshot captures counters plus Go runtime and OS-level self stats.
// The gopsutil lookups are best-effort; a failure just leaves zeroes.
func (m *Metrics) Snapshot() Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := Stats{
		UptimeSeconds:     int64(time.Since(m.startedAt).Seconds()),
		MessagesPersisted: atomic.LoadUint64(&m.messagesPersisted),
		EventsPublished:   atomic.LoadUint64(&m.eventsPublished),
		EventsDelivered:   atomic.LoadUint64(&m.eventsDelivered),
		EventsDropped:     atomic.LoadUint64(&m.eventsDropped),
		Connections:       atomic.LoadInt64(&m.connections),
		Subscriptions:     atomic.LoadInt64(&m.subscriptions),
		Goroutines:        runtime.NumGoroutine(),
		AllocMemMb:        ms.Alloc / 1024 / 1024,
		NumGC:             ms.NumGC,
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			stats.RssMb = mem.RSS / 1024 / 1024
		}
		if cpu, err := p.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
