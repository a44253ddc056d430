package motor

import "errors"

const (
	// Center is the actuator angle that stops a continuous rotation servo
	Center = 90

	// DefaultClampSpeed keeps Center +/- speed inside the servo's 0-180 range
	DefaultClampSpeed = 90
	// DefaultStep is how much the speed changes per Advance
	DefaultStep = 1
)

// Direction is the mounting orientation of a motor
type Direction int

const (
	Forward Direction = 1
	Reverse Direction = -1
)

// Actuator drives a motor with a servo-style angle. tinygo.org/x/drivers/servo.Servo satisfies it.
type Actuator interface {
	SetAngle(angle int) error
}

// Config has the ramp settings for a Motor
type Config struct {
	Direction  Direction
	ClampSpeed int
	Step       int
}

// Motor ramps a drive motor toward a target speed by at most Step per Advance. It belongs to the
// cooperative loop and is not safe for concurrent use.
type Motor struct {
	actuator Actuator

	direction  Direction
	clampSpeed int
	step       int

	currentSpeed int
	targetSpeed  int
}

// New creates a stopped Motor and writes the stop position to the actuator
func New(actuator Actuator, cfg Config) (*Motor, error) {
	if cfg.Direction == 0 {
		cfg.Direction = Forward
	}
	if cfg.Direction != Forward && cfg.Direction != Reverse {
		return nil, errors.New("invalid Direction")
	}
	if cfg.ClampSpeed == 0 {
		cfg.ClampSpeed = DefaultClampSpeed
	}
	if cfg.ClampSpeed < 0 || cfg.ClampSpeed > Center {
		return nil, errors.New("invalid ClampSpeed")
	}
	if cfg.Step == 0 {
		cfg.Step = DefaultStep
	}
	if cfg.Step < 0 {
		return nil, errors.New("invalid Step")
	}

	m := &Motor{
		actuator:   actuator,
		direction:  cfg.Direction,
		clampSpeed: cfg.ClampSpeed,
		step:       cfg.Step,
	}

	err := actuator.SetAngle(Center)
	if err != nil {
		return nil, errors.New("error stopping motor: " + err.Error())
	}

	return m, nil
}

// SetTarget sets the speed to ramp toward. Speeds outside +/- ClampSpeed are clamped. The actuator is
// not changed until the next Advance.
func (m *Motor) SetTarget(speed int) {
	m.targetSpeed = max(-m.clampSpeed, min(speed, m.clampSpeed))
}

// Advance moves the current speed one step toward the target, without passing it, and writes it to
// the actuator
func (m *Motor) Advance() error {
	// speeds stay within +/- Center, so the gap can't overflow but current +/- step can
	switch gap := m.targetSpeed - m.currentSpeed; {
	case gap > m.step:
		m.currentSpeed += m.step
	case gap < -m.step:
		m.currentSpeed -= m.step
	default:
		m.currentSpeed = m.targetSpeed
	}

	return m.actuator.SetAngle(m.Angle())
}

// Angle returns the actuator angle for the current speed
func (m *Motor) Angle() int {
	return Center + int(m.direction)*m.currentSpeed
}

// Speed returns the current speed
func (m *Motor) Speed() int {
	return m.currentSpeed
}

// Target returns the target speed
func (m *Motor) Target() int {
	return m.targetSpeed
}
