package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-ideator/shared/config"
	"channel-ideator/shared/monitoring"
)

type summary string

func (s summary) GetSummary() string { return string(s) }

type fakeAgent struct {
	runErr  error
	initErr error
	report  func(events *AgentEvents)
	runs    int
}

func (f *fakeAgent) Name() string      { return "Fake Agent" }
func (f *fakeAgent) Initialize() error { return f.initErr }

func (f *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	f.runs++
	if f.report != nil {
		f.report(events)
	}
	return f.runErr
}

func TestRunOnceReportsSuccess(t *testing.T) {
	agent := &fakeAgent{report: func(events *AgentEvents) {
		events.OnSuccess(summary("analyzed 2 channels"), time.Second)
	}}
	monitor := monitoring.NewMonitor()
	s := New(&config.Config{Schedule: "0 0 9 * * *"}, agent, monitor)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, agent.runs)
	assert.True(t, monitor.IsHealthy())
	assert.Contains(t, monitor.GetStatusSummary(), "analyzed 2 channels")
}

func TestRunOnceRecordsCriticalFailure(t *testing.T) {
	agent := &fakeAgent{runErr: errors.New("no channels reachable")}
	s := New(&config.Config{}, agent, nil)

	err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "Fake Agent run failed")
	assert.False(t, s.Monitor().IsHealthy())
}

func TestStartFailsWhenInitializeFails(t *testing.T) {
	agent := &fakeAgent{initErr: errors.New("missing key")}
	s := New(&config.Config{Schedule: "0 0 9 * * *"}, agent, nil)

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "failed to initialize agent")
}

func TestStartRejectsBadSchedule(t *testing.T) {
	agent := &fakeAgent{}
	cfg := &config.Config{Schedule: "not a schedule"}
	cfg.Monitoring.HealthPort = 0
	s := New(cfg, agent, nil)

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "failed to add cron job")
}
