package sonar

import (
	"sync/atomic"
	"time"

	"github.com/dreamster-robot/dreamster"
)

// cooldownFactor scales the last echo duration into the cooldown target
const cooldownFactor = 8

// Line is a digital I/O line. machine.Pin satisfies it.
type Line interface {
	Get() bool
	High()
	Low()
}

// Pins are the trigger and echo lines of one ranging channel
type Pins struct {
	Trigger Line
	Echo    Line
}

// Timeouts counts the echo timeouts a Sensor has seen since startup
type Timeouts struct {
	// Wait counts echoes that never started
	Wait uint32
	// Measure counts echoes that never ended
	Measure uint32
}

// Sensor is the timing state machine for one ultrasonic ranging channel. Everything except Distance
// and Timeouts belongs to the context that calls Tick.
type Sensor struct {
	pins  Pins
	delay func(time.Duration)

	triggerPulse    time.Duration
	waitTimeout     uint32
	measureTimeout  uint32
	state           dreamster.SonarState
	ticks           uint32
	cooldownTicks   uint32
	distance        atomic.Uint32
	waitTimeouts    atomic.Uint32
	measureTimeouts atomic.Uint32
}

// NewSensor creates a Sensor in Standby and drives its trigger line low
func NewSensor(pins Pins, cfg Config) *Sensor {
	s := &Sensor{}
	s.init(pins, cfg)
	return s
}

func (s *Sensor) init(pins Pins, cfg Config) {
	cfg = cfg.withDefaults()

	s.pins = pins
	s.delay = cfg.Delay
	s.triggerPulse = cfg.TriggerPulse
	s.waitTimeout = cfg.WaitEchoTimeout
	s.measureTimeout = cfg.MeasureTimeout
	s.state = dreamster.SonarStandby

	s.pins.Trigger.Low()
}

// Tick advances the state machine by one timer tick. It never blocks longer than the trigger pulse.
func (s *Sensor) Tick() {
	switch s.state {
	case dreamster.SonarBeginTrigger:
		s.pins.Trigger.High()
		s.delay(s.triggerPulse)
		s.pins.Trigger.Low()
		s.enter(dreamster.SonarWaitingEcho, 0)

	case dreamster.SonarWaitingEcho:
		s.ticks++
		if s.pins.Echo.Get() {
			s.enter(dreamster.SonarMeasuring, 1)
			return
		}
		// no echo start; measure anyway so a silent channel still reaches Cooldown
		if s.ticks > s.waitTimeout {
			s.waitTimeouts.Add(1)
			s.enter(dreamster.SonarMeasuring, 1)
		}

	case dreamster.SonarMeasuring:
		if !s.pins.Echo.Get() {
			s.finish(TicksToCentimeters(s.ticks))
			return
		}
		s.ticks++
		if s.ticks > s.measureTimeout {
			s.measureTimeouts.Add(1)
			s.finish(0)
		}

	case dreamster.SonarCooldown:
		s.ticks++
		if s.ticks > s.cooldownTicks {
			s.enter(dreamster.SonarStandby, 0)
		}

	case dreamster.SonarStandby:
	}
}

// Trigger promotes a Sensor in Standby to BeginTrigger. It reports false if the Sensor was busy.
func (s *Sensor) Trigger() bool {
	if s.state != dreamster.SonarStandby {
		return false
	}
	s.enter(dreamster.SonarBeginTrigger, 0)
	return true
}

// finish publishes a measurement and starts the cooldown. The cooldown moves halfway toward
// cooldownFactor times the echo duration.
func (s *Sensor) finish(distance uint32) {
	s.distance.Store(distance)
	s.cooldownTicks = nextCooldown(s.cooldownTicks, s.ticks)
	s.enter(dreamster.SonarCooldown, 0)
}

func (s *Sensor) enter(state dreamster.SonarState, ticks uint32) {
	s.state = state
	s.ticks = ticks
}

// State returns the current state. Only the ticking context may rely on it.
func (s *Sensor) State() dreamster.SonarState {
	return s.state
}

// Ticks returns the working counter of the current state
func (s *Sensor) Ticks() uint32 {
	return s.ticks
}

// CooldownTicks returns the current adaptive cooldown duration in ticks
func (s *Sensor) CooldownTicks() uint32 {
	return s.cooldownTicks
}

// Distance returns the last completed measurement in centimeters. Zero means there was no valid echo.
// It is safe to call from any goroutine.
func (s *Sensor) Distance() uint {
	return uint(s.distance.Load())
}

// Timeouts returns the timeout counters. It is safe to call from any goroutine.
func (s *Sensor) Timeouts() Timeouts {
	return Timeouts{
		Wait:    s.waitTimeouts.Load(),
		Measure: s.measureTimeouts.Load(),
	}
}

// TicksToCentimeters converts an echo duration in ticks to a distance
func TicksToCentimeters(ticks uint32) uint32 {
	return ticks / 2
}

func nextCooldown(cooldown, echoTicks uint32) uint32 {
	return (cooldown + echoTicks*cooldownFactor) / 2
}
