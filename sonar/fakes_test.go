package sonar

import (
	"time"

	"github.com/dreamster-robot/dreamster"
)

type fakeLine struct {
	level bool
	highs int
	lows  int
}

func (l *fakeLine) Get() bool { return l.level }
func (l *fakeLine) High()     { l.level = true; l.highs++ }
func (l *fakeLine) Low()      { l.level = false; l.lows++ }

// fakeRanger answers a trigger pulse like an HC-SR04: the echo line reads low for latency samples,
// then high for 2*cm samples. cm < 0 keeps the echo high forever and cm == 0 never answers.
type fakeRanger struct {
	latency int
	cm      int

	trigger fakeLine
	fired   bool
	samples int
}

func (r *fakeRanger) pins() Pins {
	return Pins{Trigger: &rangerTrigger{r}, Echo: &rangerEcho{r}}
}

type rangerTrigger struct{ r *fakeRanger }

func (t *rangerTrigger) Get() bool { return t.r.trigger.level }
func (t *rangerTrigger) High()     { t.r.trigger.High() }
func (t *rangerTrigger) Low() {
	if t.r.trigger.level {
		t.r.fired = true
		t.r.samples = 0
	}
	t.r.trigger.Low()
}

type rangerEcho struct{ r *fakeRanger }

func (e *rangerEcho) Get() bool {
	r := e.r
	if !r.fired || r.cm == 0 {
		return false
	}
	r.samples++
	if r.samples <= r.latency {
		return false
	}
	if r.cm < 0 {
		return true
	}
	if r.samples <= r.latency+2*r.cm {
		return true
	}
	r.fired = false
	return false
}

func (e *rangerEcho) High() {}
func (e *rangerEcho) Low()  {}

func noDelay(time.Duration) {}

func testConfig() Config {
	return Config{Delay: noDelay}
}

func newTestSequencer(rangers [dreamster.NumChannels]*fakeRanger) *Sequencer {
	var pins [dreamster.NumChannels]Pins
	for i, r := range rangers {
		pins[i] = r.pins()
	}
	return NewSequencer(pins, testConfig())
}

type fakeTimer struct {
	period  time.Duration
	tick    func()
	started int
	stopped int
}

func (t *fakeTimer) Start(period time.Duration, tick func()) {
	t.period = period
	t.tick = tick
	t.started++
}

func (t *fakeTimer) Stop() {
	t.stopped++
}
