package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitorHealth(t *testing.T) {
	m := NewMonitor()
	assert.True(t, m.IsHealthy(), "healthy before any run")
	assert.Equal(t, "No runs yet", m.GetStatusSummary())

	m.RecordSuccess("analyzed 3 videos", time.Second)
	assert.True(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), "analyzed 3 videos")

	m.RecordPartialFailure(errors.New("one channel failed"), time.Second)
	assert.True(t, m.IsHealthy(), "partial failures keep health")

	m.RecordCriticalFailure(errors.New("browser missing"), time.Second)
	assert.False(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), "Last run failed")
	assert.Contains(t, m.GetStatusSummary(), "(1 ok, 1 partial, 1 failed)")
}

func TestMonitorConcurrentUse(t *testing.T) {
	m := NewMonitor()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.RecordSuccess("ok", time.Millisecond)
			} else {
				_ = m.IsHealthy()
				_ = m.GetStatusSummary()
			}
		}(i)
	}
	wg.Wait()
	assert.Contains(t, m.GetStatusSummary(), "(10 ok, 0 partial, 0 failed)")
}

func TestHealthServerHandler(t *testing.T) {
	m := NewMonitor()
	srv := httptest.NewServer(NewHealthServer(m, "0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	m.RecordCriticalFailure(errors.New("boom"), time.Second)

	resp, err = http.Get(srv.URL + "/health")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/status")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	resp.Body.Close()
}
