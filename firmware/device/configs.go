//go:build tinygo

package device

import (
	"machine"
	"time"

	"github.com/dreamster-robot/dreamster/motor"
	"tinygo.org/x/drivers/servo"
)

// SonarConfig has the pins of one ultrasonic ranging channel
type SonarConfig struct {
	Trigger machine.Pin
	Echo    machine.Pin
}

// IRConfig has the analog pins of the infrared sensors
type IRConfig struct {
	Left  machine.Pin
	Right machine.Pin
}

// LightConfig has the PWM pins of the RGB LED
type LightConfig struct {
	Red   machine.Pin
	Green machine.Pin
	Blue  machine.Pin
	// Period of the LED PWM, defaults to 1ms
	Period time.Duration
}

// MotorConfig has device-level values for setting up one continuous rotation servo
type MotorConfig struct {
	Pin       machine.Pin
	PWM       servo.PWM
	Direction motor.Direction
	// Step is how much the speed changes on every update
	Step int
}
