package sonar

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer calls a function at a fixed period until stopped
type Timer interface {
	Start(period time.Duration, tick func())
	Stop()
}

// Dispatcher is the periodic entry point of the ranging channels. Tick is the only function that may
// be called from the timer.
type Dispatcher struct {
	sequencer *Sequencer
	timer     Timer
	period    time.Duration
	tick      func()

	running  atomic.Bool
	ticks    atomic.Uint32
	overruns atomic.Uint32
}

// NewDispatcher creates a Dispatcher for the Sequencer. It does not start the Timer.
func NewDispatcher(sequencer *Sequencer, timer Timer, period time.Duration) *Dispatcher {
	if period == 0 {
		period = DefaultTickPeriod
	}
	d := &Dispatcher{
		sequencer: sequencer,
		timer:     timer,
		period:    period,
	}
	d.tick = d.Tick
	return d
}

// Tick runs one Sequencer pass. A call that arrives while the previous pass is still running is
// dropped and counted as an overrun.
func (d *Dispatcher) Tick() {
	if !d.running.CompareAndSwap(false, true) {
		d.overruns.Add(1)
		return
	}
	d.sequencer.Tick()
	d.ticks.Add(1)
	d.running.Store(false)
}

// Enable starts calling Tick from the Timer
func (d *Dispatcher) Enable() {
	d.timer.Start(d.period, d.tick)
}

// Disable stops the Timer
func (d *Dispatcher) Disable() {
	d.timer.Stop()
}

// Period returns the tick period
func (d *Dispatcher) Period() time.Duration {
	return d.period
}

// Ticks returns the number of completed passes. It wraps around.
func (d *Dispatcher) Ticks() uint32 {
	return d.ticks.Load()
}

// Overruns returns the number of dropped re-entrant ticks
func (d *Dispatcher) Overruns() uint32 {
	return d.overruns.Load()
}

// TickerTimer is a Timer backed by a goroutine and a time.Ticker. The period is only nominal: ticks that
// come while tick is still running or the goroutine is not scheduled are dropped, not queued.
type TickerTimer struct {
	mtx  sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// Start starts calling tick every period. It does nothing if the timer is already running.
func (t *TickerTimer) Start(period time.Duration, tick func()) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.stop != nil {
		return
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tick()
			}
		}
	}(t.stop, t.done)
}

// Stop stops the timer and waits for a running tick to return
func (t *TickerTimer) Stop() {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.stop == nil {
		return
	}

	close(t.stop)
	<-t.done
	t.stop = nil
	t.done = nil
}
