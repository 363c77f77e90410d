package natsclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStatusString(t *testing.T) {
	tests := []struct {
		status ConnectionStatus
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusCircuitOpen, "circuit-open"},
		{ConnectionStatus(9), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", c.URL())
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.False(t, c.IsHealthy())
}

func TestNewClientOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  ClientOption
	}{
		{"empty name", WithName("")},
		{"nil logger", WithLogger(nil)},
		{"zero timeout", WithTimeout(0)},
		{"bad reconnects", WithMaxReconnects(-2)},
		{"zero reconnect wait", WithReconnectWait(0)},
		{"zero circuit threshold", WithCircuitThreshold(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient("nats://localhost:4222", tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Publish(context.Background(), "chassmon.events.changed", nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSubscribeWithoutConnection(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Subscribe(context.Background(), "chassmon.control.arm", func(context.Context, []byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	// Port 1 refuses connections immediately.
	c, err := NewClient("nats://127.0.0.1:1",
		WithCircuitThreshold(2),
		WithTimeout(50*time.Millisecond),
		WithMaxReconnects(0))
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, c.Connect(ctx))
	require.Error(t, c.Connect(ctx))
	assert.Equal(t, StatusCircuitOpen, c.Status())

	// Subsequent attempts are rejected without dialing.
	err = c.Connect(ctx)
	require.Error(t, err)
}

func TestCloseIdempotent(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
}
