package component

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "created"},
		{StateInitialized, "initialized"},
		{StateStarted, "started"},
		{StateStopped, "stopped"},
		{StateFailed, "failed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

type stubComponent struct{}

func (s *stubComponent) Meta() Metadata            { return Metadata{Name: "stub", Type: "monitor"} }
func (s *stubComponent) Health() HealthStatus      { return HealthStatus{Healthy: true} }
func (s *stubComponent) DataFlow() FlowMetrics     { return FlowMetrics{} }
func (s *stubComponent) Initialize() error         { return nil }
func (s *stubComponent) Start(context.Context) error { return nil }
func (s *stubComponent) Stop(time.Duration) error  { return nil }

func TestAsLifecycleComponent(t *testing.T) {
	var d Discoverable = &stubComponent{}

	lc, ok := AsLifecycleComponent(d)
	require.True(t, ok)
	require.NotNil(t, lc)
	assert.NoError(t, lc.Initialize())
}
