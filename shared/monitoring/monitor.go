package monitoring

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Monitor tracks the outcome of analysis runs. It is shared by the scheduler and
// the HTTP API, so every method is safe for concurrent use.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	successes      int
	partials       int
	failures       int
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.successes++
	m.mu.Unlock()

	log.Printf("✅ Run completed successfully - %s (took %v)", summary, duration)
}

// RecordPartialFailure logs a degraded run without changing health status.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partials++
	m.mu.Unlock()

	log.Warnf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	now := time.Now()
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = now
	m.lastSummary = err.Error()
	m.failures++
	m.mu.Unlock()

	log.Errorf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration)
	log.Errorf("Failure occurred at: %s", now.Format("2006-01-02 15:04:05"))
}

// IsHealthy is true before the first run and after any successful run.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	counts := fmt.Sprintf("(%d ok, %d partial, %d failed)", m.successes, m.partials, m.failures)
	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last run: %s - %s %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary, counts)
	}
	return fmt.Sprintf("❌ Last run failed: %s - %s %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary, counts)
}
