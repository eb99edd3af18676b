package dispatcher

import (
	"sort"
	"sync"
	"time"
)

// Metrics counts dispatches per action, keyed by reverse id. A collector
// may be shared by successive dispatchers (see WithMetrics) so counts
// survive a route reload.
type Metrics struct {
	mu          sync.RWMutex
	actions     map[string]*ActionStats
	noMatch     uint64
	noMatchTime time.Duration
}

// ActionStats is the dispatch record of one action.
type ActionStats struct {
	Action     string
	Dispatches uint64
	Failures   uint64
	Panics     uint64
	Total      time.Duration
	Max        time.Duration
	Last       time.Time
}

// Average returns the mean dispatch duration.
func (s ActionStats) Average() time.Duration {
	if s.Dispatches == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Dispatches)
}

// FailureRate returns the fraction of dispatches that failed, in [0, 1].
func (s ActionStats) FailureRate() float64 {
	if s.Dispatches == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Dispatches)
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{actions: make(map[string]*ActionStats)}
}

func (m *Metrics) record(reverse string, elapsed time.Duration, ok bool, panics int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.actions[reverse]
	if s == nil {
		s = &ActionStats{Action: reverse}
		m.actions[reverse] = s
	}
	s.Dispatches++
	s.Total += elapsed
	s.Max = max(s.Max, elapsed)
	s.Last = time.Now()
	s.Panics += uint64(panics)
	if !ok {
		s.Failures++
	}
}

func (m *Metrics) recordNoMatch(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.noMatch++
	m.noMatchTime += elapsed
}

// Action returns the record of one action.
func (m *Metrics) Action(reverse string) (ActionStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.actions[reverse]
	if !ok {
		return ActionStats{}, false
	}
	return *s, true
}

// MetricsSnapshot is a point-in-time copy of a collector.
type MetricsSnapshot struct {
	// Dispatches counts every request, including those nothing matched.
	Dispatches uint64
	Failures   uint64
	NoMatch    uint64
	Panics     uint64
	Total      time.Duration

	// Actions is ordered busiest first, ties by reverse id.
	Actions []ActionStats
}

// Average returns the mean duration over all requests.
func (s MetricsSnapshot) Average() time.Duration {
	if s.Dispatches == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Dispatches)
}

// Top returns at most n of the busiest actions.
func (s MetricsSnapshot) Top(n int) []ActionStats {
	return s.Actions[:min(n, len(s.Actions))]
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		Dispatches: m.noMatch,
		NoMatch:    m.noMatch,
		Total:      m.noMatchTime,
		Actions:    make([]ActionStats, 0, len(m.actions)),
	}
	for _, s := range m.actions {
		snap.Dispatches += s.Dispatches
		snap.Failures += s.Failures
		snap.Panics += s.Panics
		snap.Total += s.Total
		snap.Actions = append(snap.Actions, *s)
	}

	sort.Slice(snap.Actions, func(i, j int) bool {
		a, b := snap.Actions[i], snap.Actions[j]
		if a.Dispatches != b.Dispatches {
			return a.Dispatches > b.Dispatches
		}
		return a.Action < b.Action
	})
	return snap
}
