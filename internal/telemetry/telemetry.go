// Package telemetry collects in-process query metrics for the stats surface.
package telemetry

import (
	"sync"
	"time"
)

// QueryStats is a snapshot of aggregate query metrics.
type QueryStats struct {
	TotalQueries    int64         `json:"total_queries"`
	DegradedQueries int64         `json:"degraded_queries"`
	EmptyQueries    int64         `json:"empty_queries"`
	AvgLatency      time.Duration `json:"avg_latency"`
	AvgSufficiency  float64       `json:"avg_sufficiency"`
}

// Event is one recorded query, kept in a bounded ring of recent history.
type Event struct {
	TenantID    string        `json:"tenant_id"`
	ResultCount int           `json:"result_count"`
	Sufficiency float64       `json:"sufficiency"`
	Degraded    bool          `json:"degraded"`
	Latency     time.Duration `json:"latency"`
	Timestamp   time.Time     `json:"timestamp"`
}

// recentEvents is the ring capacity for query history.
const recentEvents = 256

// Recorder accumulates query metrics, overall and per tenant, plus a ring
// of recent query events.
type Recorder struct {
	mu       sync.Mutex
	overall  accumulator
	byTenant map[string]*accumulator
	events   []Event
	next     int
}

type accumulator struct {
	queries        int64
	degraded       int64
	empty          int64
	totalLatency   time.Duration
	sufficiencySum float64
}

// NewRecorder creates an empty metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{byTenant: make(map[string]*accumulator)}
}

// RecordQuery records one completed search call.
func (r *Recorder) RecordQuery(tenantID string, latency time.Duration, resultCount int, degraded bool, sufficiency float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.byTenant[tenantID]
	if t == nil {
		t = &accumulator{}
		r.byTenant[tenantID] = t
	}
	for _, a := range []*accumulator{&r.overall, t} {
		a.queries++
		a.totalLatency += latency
		a.sufficiencySum += sufficiency
		if degraded {
			a.degraded++
		}
		if resultCount == 0 {
			a.empty++
		}
	}

	ev := Event{
		TenantID:    tenantID,
		ResultCount: resultCount,
		Sufficiency: sufficiency,
		Degraded:    degraded,
		Latency:     latency,
		Timestamp:   time.Now(),
	}
	if len(r.events) < recentEvents {
		r.events = append(r.events, ev)
	} else {
		r.events[r.next] = ev
		r.next = (r.next + 1) % recentEvents
	}
}

// Recent returns the recorded query events, oldest first.
func (r *Recorder) Recent() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, 0, len(r.events))
	if len(r.events) == recentEvents {
		out = append(out, r.events[r.next:]...)
		out = append(out, r.events[:r.next]...)
	} else {
		out = append(out, r.events...)
	}
	return out
}

// Overall returns the aggregate stats across all tenants.
func (r *Recorder) Overall() QueryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overall.stats()
}

// Tenant returns the stats for one tenant.
func (r *Recorder) Tenant(tenantID string) QueryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byTenant[tenantID]; t != nil {
		return t.stats()
	}
	return QueryStats{}
}

func (a *accumulator) stats() QueryStats {
	s := QueryStats{
		TotalQueries:    a.queries,
		DegradedQueries: a.degraded,
		EmptyQueries:    a.empty,
	}
	if a.queries > 0 {
		s.AvgLatency = a.totalLatency / time.Duration(a.queries)
		s.AvgSufficiency = a.sufficiencySum / float64(a.queries)
	}
	return s
}
