package simulator

import "sync"

// DefaultLatency is the number of ticks between the trigger pulse and the start of the echo. An
// HC-SR04 sends 8 cycles of 40kHz before listening, about 200us.
const DefaultLatency = 3

// Sonar models an HC-SR04 against a single obstacle. Time is measured in timer ticks, and one tick
// of echo is half a centimeter of distance.
type Sonar struct {
	mtx sync.Mutex

	clock    *Timer
	latency  uint64
	distance uint64
	stuck    bool

	triggerHigh bool
	firedAt     uint64
	fired       bool
	pulses      int
}

func newSonar(clock *Timer, cfg SonarScenario) *Sonar {
	latency := cfg.Latency
	if latency == 0 {
		latency = DefaultLatency
	}
	return &Sonar{
		clock:    clock,
		latency:  uint64(latency),
		distance: uint64(cfg.Distance),
		stuck:    cfg.Stuck,
	}
}

// SetDistance moves the obstacle. Zero removes it so no echo comes back.
func (s *Sonar) SetDistance(cm uint) {
	s.mtx.Lock()
	s.distance = uint64(cm)
	s.mtx.Unlock()
}

// Pulses returns the number of trigger pulses received
func (s *Sonar) Pulses() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.pulses
}

func (s *Sonar) echo() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.fired {
		return false
	}

	elapsed := s.clock.Ticks() - s.firedAt
	if elapsed <= s.latency {
		return false
	}
	if s.stuck {
		return true
	}
	if s.distance == 0 {
		return false
	}
	return elapsed <= s.latency+2*s.distance
}

// TriggerPin is the trigger input of a Sonar. A falling edge sends a burst.
type TriggerPin struct{ s *Sonar }

func (p TriggerPin) Get() bool {
	p.s.mtx.Lock()
	defer p.s.mtx.Unlock()
	return p.s.triggerHigh
}

func (p TriggerPin) High() {
	p.s.mtx.Lock()
	p.s.triggerHigh = true
	p.s.mtx.Unlock()
}

func (p TriggerPin) Low() {
	p.s.mtx.Lock()
	defer p.s.mtx.Unlock()

	if p.s.triggerHigh {
		p.s.fired = true
		p.s.firedAt = p.s.clock.Ticks()
		p.s.pulses++
	}
	p.s.triggerHigh = false
}

// EchoPin is the echo output of a Sonar. Writes are ignored.
type EchoPin struct{ s *Sonar }

func (p EchoPin) Get() bool { return p.s.echo() }
func (p EchoPin) High()     {}
func (p EchoPin) Low()      {}

// Analog is a fixed analog input
type Analog struct {
	mtx   sync.Mutex
	value uint16
}

func (a *Analog) Get() uint16 {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.value
}

// SetValue changes the value read
func (a *Analog) SetValue(v uint16) {
	a.mtx.Lock()
	a.value = v
	a.mtx.Unlock()
}

// Level records an output level, like one channel of the RGB LED
type Level struct {
	mtx   sync.Mutex
	level uint8
}

func (l *Level) Set(level uint8) {
	l.mtx.Lock()
	l.level = level
	l.mtx.Unlock()
}

// Level returns the last level written
func (l *Level) Level() uint8 {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.level
}

// Servo records the angles written to a drive motor
type Servo struct {
	mtx    sync.Mutex
	angle  int
	writes int
}

func (s *Servo) SetAngle(angle int) error {
	s.mtx.Lock()
	s.angle = angle
	s.writes++
	s.mtx.Unlock()
	return nil
}

// Angle returns the last angle written
func (s *Servo) Angle() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.angle
}

// Writes returns the number of angles written
func (s *Servo) Writes() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.writes
}
