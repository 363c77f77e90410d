package hotplug

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	a, io, bnd, _ := newTestAggregator(t, AggregatorDeps{Profile: presenceProfile(false)})
	io.set(tStatus, 0x01)

	require.NoError(t, a.Initialize())
	assert.Error(t, a.Initialize(), "double initialize rejected")

	require.NoError(t, a.Start(context.Background()))
	assert.True(t, a.Armed())
	assert.Equal(t, 1, bnd.createCount())

	meta := a.Meta()
	assert.Equal(t, "hotplug-aggregator", meta.Name)
	assert.Equal(t, "monitor", meta.Type)

	health := a.Health()
	assert.True(t, health.Healthy)

	require.NoError(t, a.Stop(2*time.Second))
	assert.False(t, a.Armed())
	assert.Equal(t, 1, bnd.destroyCount())
	assert.False(t, a.Health().Healthy)

	assert.Error(t, a.Stop(time.Second), "double stop rejected")
}

func TestStartBeforeInitialize(t *testing.T) {
	a, _, _, _ := newTestAggregator(t, AggregatorDeps{Profile: presenceProfile(false)})
	assert.Error(t, a.Start(context.Background()))
}

func TestDeferredArm(t *testing.T) {
	a, io, bnd, _ := newTestAggregator(t, AggregatorDeps{
		Profile:     presenceProfile(false),
		DeferredArm: true,
	})
	io.set(tStatus, 0x01)

	require.NoError(t, a.Initialize())
	require.NoError(t, a.Start(context.Background()))
	defer func() { _ = a.Stop(time.Second) }()

	// Started disarmed: no hardware setup, no bindings.
	assert.False(t, a.Armed())
	assert.Zero(t, bnd.createCount())

	// The external control path arms it.
	require.NoError(t, a.Arm(context.Background()))
	assert.True(t, a.Armed())
	assert.Equal(t, 1, bnd.createCount())

	require.NoError(t, a.Disarm(context.Background()))
	assert.False(t, a.Armed())
}

func TestTriggerDrivesWorker(t *testing.T) {
	a, io, bnd, _ := newTestAggregator(t, AggregatorDeps{Profile: presenceProfile(false)})
	io.set(tStatus, 0x00)

	require.NoError(t, a.Initialize())
	require.NoError(t, a.Start(context.Background()))
	defer func() { _ = a.Stop(time.Second) }()

	// Raise an edge and ring the interrupt.
	io.set(tStatus, 0x01)
	io.set(tAggr, 0x08)
	a.Trigger()

	require.Eventually(t, func() bool {
		return bnd.createCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPollTickerDrivesWorker(t *testing.T) {
	a, io, bnd, _ := newTestAggregator(t, AggregatorDeps{
		Profile:      polledProfile(false),
		PollInterval: 20 * time.Millisecond,
	})
	io.set(tStatus, 0x00)

	require.NoError(t, a.Initialize())
	require.NoError(t, a.Start(context.Background()))
	defer func() { _ = a.Stop(time.Second) }()

	io.set(tStatus, 0x01)

	require.Eventually(t, func() bool {
		return bnd.createCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopCancelsInFlightWork(t *testing.T) {
	a, io, bnd, _ := newTestAggregator(t, AggregatorDeps{Profile: polledProfile(false)})
	io.set(tStatus, 0x03)

	require.NoError(t, a.Initialize())
	require.NoError(t, a.Start(context.Background()))
	require.Equal(t, 2, bnd.createCount())

	require.NoError(t, a.Stop(2*time.Second))

	// Teardown destroyed everything and nothing re-attached afterwards.
	assert.Equal(t, 2, bnd.destroyCount())
	for _, it := range a.items {
		for _, s := range it.slots {
			assert.False(t, s.Attached())
		}
	}
}

func TestDataFlow(t *testing.T) {
	a, io, _, _ := newTestAggregator(t, AggregatorDeps{Profile: polledProfile(false)})
	io.set(tStatus, 0x00)

	require.NoError(t, a.Initialize())
	require.NoError(t, a.Start(context.Background()))
	defer func() { _ = a.Stop(time.Second) }()

	io.set(tStatus, 0x03)
	a.runCycle(context.Background())

	flow := a.DataFlow()
	assert.Positive(t, flow.EventsPerSecond)
	assert.False(t, flow.LastActivity.IsZero())

	health := a.Health()
	assert.True(t, health.Healthy)
	assert.Zero(t, health.ErrorCount)
}
