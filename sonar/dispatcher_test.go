package sonar

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dreamster-robot/dreamster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherTick(t *testing.T) {
	s := newTestSequencer([dreamster.NumChannels]*fakeRanger{{}, {}, {}})
	d := NewDispatcher(s, &fakeTimer{}, 0)

	assert.Equal(t, DefaultTickPeriod, d.Period())

	d.Tick()
	assert.EqualValues(t, 1, d.Ticks())
	assert.Equal(t, dreamster.SonarBeginTrigger, s.Sensor(dreamster.ChannelA).State())
	assert.Equal(t, dreamster.SonarStandby, s.Sensor(dreamster.ChannelB).State())

	d.Tick()
	assert.EqualValues(t, 2, d.Ticks())
	assert.Equal(t, dreamster.SonarWaitingEcho, s.Sensor(dreamster.ChannelA).State())
	assert.EqualValues(t, 0, d.Overruns())
}

func TestDispatcherDropsReentrantTick(t *testing.T) {
	s := newTestSequencer([dreamster.NumChannels]*fakeRanger{{}, {}, {}})
	d := NewDispatcher(s, &fakeTimer{}, 0)

	d.running.Store(true)
	d.Tick()

	assert.EqualValues(t, 1, d.Overruns())
	assert.EqualValues(t, 0, d.Ticks())
	assert.Equal(t, dreamster.SonarStandby, s.Sensor(dreamster.ChannelA).State())

	d.running.Store(false)
	d.Tick()
	assert.EqualValues(t, 1, d.Ticks())
}

func TestDispatcherEnableDisable(t *testing.T) {
	s := newTestSequencer([dreamster.NumChannels]*fakeRanger{{}, {}, {}})
	timer := &fakeTimer{}
	d := NewDispatcher(s, timer, 100*time.Microsecond)

	d.Enable()
	require.Equal(t, 1, timer.started)
	assert.Equal(t, 100*time.Microsecond, timer.period)

	timer.tick()
	assert.EqualValues(t, 1, d.Ticks())

	d.Disable()
	assert.Equal(t, 1, timer.stopped)
}

func TestTickerTimer(t *testing.T) {
	var count atomic.Int32
	timer := &TickerTimer{}

	timer.Start(200*time.Microsecond, func() { count.Add(1) })
	// starting a running timer is a no-op
	timer.Start(time.Hour, func() { t.Error("second tick function should not be used") })

	require.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, time.Millisecond)

	timer.Stop()
	stopped := count.Load()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, stopped, count.Load())

	// stopping twice is a no-op and the timer can be restarted
	timer.Stop()
	timer.Start(200*time.Microsecond, func() { count.Add(1) })
	require.Eventually(t, func() bool { return count.Load() > stopped }, time.Second, time.Millisecond)
	timer.Stop()
}

func TestTickerTimerDropsLateTicks(t *testing.T) {
	var count atomic.Int32
	release := make(chan struct{})
	timer := &TickerTimer{}

	timer.Start(5*time.Millisecond, func() {
		if count.Add(1) == 1 {
			<-release
		}
	})

	require.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, time.Millisecond)
	// ten periods pass while the first tick blocks
	time.Sleep(50 * time.Millisecond)
	close(release)
	timer.Stop()

	assert.LessOrEqual(t, count.Load(), int32(3))
}

func TestDispatcherWithTickerTimer(t *testing.T) {
	s := newTestSequencer([dreamster.NumChannels]*fakeRanger{{}, {}, {}})
	d := NewDispatcher(s, &TickerTimer{}, 50*time.Microsecond)

	d.Enable()
	require.Eventually(t, func() bool { return d.Ticks() > 100 }, 5*time.Second, time.Millisecond)
	d.Disable()

	// readers only use the atomic accessors while the timer runs
	_ = s.Distances()
	state, _ := s.Debug()
	assert.NotEqual(t, dreamster.SonarState(0), state)
}
