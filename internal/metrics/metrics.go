package metrics

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Well-known metric names
const (
	HTTPRequests     = "http.requests"
	DBQuery          = "db.query"
	StageTransitions = "production.stage_transitions"
	FoldingRecords   = "production.folding_records"
	StockMovements   = "inventory.movements"
	ReportsGenerated = "reports.generated"
	ReportsFailed    = "reports.failed"
	EventsPublished  = "events.published"
	EventsFailed     = "events.failed"
	LoginSucceeded   = "auth.login.succeeded"
	LoginFailed      = "auth.login.failed"
	CacheHits        = "cache.hits"
	CacheMisses      = "cache.misses"
)

// TimerMetric captures timing information
type TimerMetric struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateMetric captures error rates
type ErrorRateMetric struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

// Snapshot is a point-in-time copy of every metric
type Snapshot struct {
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Counters      map[string]int64           `json:"counters"`
	Gauges        map[string]int64           `json:"gauges"`
	Timers        map[string]TimerMetric     `json:"timers"`
	ErrorRates    map[string]ErrorRateMetric `json:"error_rates"`
	Health        map[string]bool            `json:"health"`
}

type timer struct {
	count       int64
	totalTimeMs int64
	minTimeMs   int64
	maxTimeMs   int64
}

type errorRate struct {
	total  int64
	errors int64
}

// Metrics is an in-process metrics collector safe for concurrent use
type Metrics struct {
	mu         sync.RWMutex
	counters   map[string]*int64
	gauges     map[string]*int64
	timers     map[string]*timer
	errorRates map[string]*errorRate
	health     map[string]*int64
	startTime  time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		timers:     make(map[string]*timer),
		errorRates: make(map[string]*errorRate),
		health:     make(map[string]*int64),
		startTime:  time.Now(),
	}
}

// lookup returns the entry for name, creating it under the write lock
func lookup[T any](m *Metrics, store map[string]*T, name string, init func() *T) *T {
	m.mu.RLock()
	v, ok := store[name]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = store[name]; !ok {
		v = init()
		store[name] = v
	}
	return v
}

func newInt64() *int64 { return new(int64) }

// IncrementCounter increments a counter by 1. Writers on a nil *Metrics are no-ops.
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the specified value
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	if m == nil {
		return
	}
	atomic.AddInt64(lookup(m, m.counters, name, newInt64), value)
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	if m == nil {
		return
	}
	atomic.StoreInt64(lookup(m, m.gauges, name, newInt64), value)
}

// RecordDuration records a timing measurement
func (m *Metrics) RecordDuration(name string, d time.Duration) {
	if m == nil {
		return
	}
	ms := d.Milliseconds()
	t := lookup(m, m.timers, name, func() *timer { return &timer{minTimeMs: math.MaxInt64} })

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTimeMs, ms)
	for {
		cur := atomic.LoadInt64(&t.minTimeMs)
		if ms >= cur || atomic.CompareAndSwapInt64(&t.minTimeMs, cur, ms) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&t.maxTimeMs)
		if ms <= cur || atomic.CompareAndSwapInt64(&t.maxTimeMs, cur, ms) {
			break
		}
	}
}

// RecordResult counts an operation outcome for error rate tracking
func (m *Metrics) RecordResult(name string, failed bool) {
	if m == nil {
		return
	}
	r := lookup(m, m.errorRates, name, func() *errorRate { return &errorRate{} })
	atomic.AddInt64(&r.total, 1)
	if failed {
		atomic.AddInt64(&r.errors, 1)
	}
}

// SetHealth sets the health status of a component
func (m *Metrics) SetHealth(component string, healthy bool) {
	if m == nil {
		return
	}
	var v int64
	if healthy {
		v = 1
	}
	atomic.StoreInt64(lookup(m, m.health, component, newInt64), v)
}

// Counter returns the current value of a counter
func (m *Metrics) Counter(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.counters[name]; ok {
		return atomic.LoadInt64(c)
	}
	return 0
}

// HealthyComponents returns the sorted names of healthy and unhealthy components
func (m *Metrics) HealthyComponents() (healthy, unhealthy []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, h := range m.health {
		if atomic.LoadInt64(h) == 1 {
			healthy = append(healthy, name)
		} else {
			unhealthy = append(unhealthy, name)
		}
	}
	sort.Strings(healthy)
	sort.Strings(unhealthy)
	return healthy, unhealthy
}

// Snapshot copies every metric
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
		Counters:      make(map[string]int64, len(m.counters)),
		Gauges:        make(map[string]int64, len(m.gauges)),
		Timers:        make(map[string]TimerMetric, len(m.timers)),
		ErrorRates:    make(map[string]ErrorRateMetric, len(m.errorRates)),
		Health:        make(map[string]bool, len(m.health)),
	}
	for name, c := range m.counters {
		s.Counters[name] = atomic.LoadInt64(c)
	}
	for name, g := range m.gauges {
		s.Gauges[name] = atomic.LoadInt64(g)
	}
	for name, t := range m.timers {
		tm := TimerMetric{
			Count:       atomic.LoadInt64(&t.count),
			TotalTimeMs: atomic.LoadInt64(&t.totalTimeMs),
			MinTimeMs:   atomic.LoadInt64(&t.minTimeMs),
			MaxTimeMs:   atomic.LoadInt64(&t.maxTimeMs),
		}
		if tm.Count > 0 {
			tm.AverageTimeMs = float64(tm.TotalTimeMs) / float64(tm.Count)
		} else {
			tm.MinTimeMs = 0
		}
		s.Timers[name] = tm
	}
	for name, r := range m.errorRates {
		em := ErrorRateMetric{
			Total:  atomic.LoadInt64(&r.total),
			Errors: atomic.LoadInt64(&r.errors),
		}
		if em.Total > 0 {
			em.ErrorRate = float64(em.Errors) / float64(em.Total) * 100
		}
		s.ErrorRates[name] = em
	}
	for name, h := range m.health {
		s.Health[name] = atomic.LoadInt64(h) == 1
	}
	return s
}
