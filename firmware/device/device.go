//go:build tinygo

package device

import (
	"errors"
	"machine"
	"time"

	"github.com/dreamster-robot/dreamster/motor"
	"github.com/dreamster-robot/dreamster/robot"
	"github.com/dreamster-robot/dreamster/sonar"

	"github.com/sparques/pwm"
	"tinygo.org/x/drivers/servo"
)

const defaultLEDPeriod = time.Millisecond

// Device is the Dreamster wired to the board. It adds serial I/O to the Robot
type Device struct {
	*robot.Robot
}

// New configures the pins and creates the Robot
func New(sonars [3]SonarConfig, ir IRConfig, light LightConfig, left, right MotorConfig) (Device, error) {
	var pins [3]sonar.Pins
	for i, s := range sonars {
		s.Trigger.Configure(machine.PinConfig{Mode: machine.PinOutput})
		s.Echo.Configure(machine.PinConfig{Mode: machine.PinInput})
		pins[i] = sonar.Pins{Trigger: s.Trigger, Echo: s.Echo}
	}

	machine.InitADC()
	irLeft := machine.ADC{Pin: ir.Left}
	irLeft.Configure(machine.ADCConfig{})
	irRight := machine.ADC{Pin: ir.Right}
	irRight.Configure(machine.ADCConfig{})

	if light.Period == 0 {
		light.Period = defaultLEDPeriod
	}
	red, err := newPWMLevel(light.Red, light.Period)
	if err != nil {
		return Device{}, errors.New("error creating red LED: " + err.Error())
	}
	green, err := newPWMLevel(light.Green, light.Period)
	if err != nil {
		return Device{}, errors.New("error creating green LED: " + err.Error())
	}
	blue, err := newPWMLevel(light.Blue, light.Period)
	if err != nil {
		return Device{}, errors.New("error creating blue LED: " + err.Error())
	}

	leftServo, err := servo.New(left.PWM, left.Pin)
	if err != nil {
		return Device{}, errors.New("error creating left servo: " + err.Error())
	}
	rightServo, err := servo.New(right.PWM, right.Pin)
	if err != nil {
		return Device{}, errors.New("error creating right servo: " + err.Error())
	}

	// sonar ticks run on the scheduler, not a hardware alarm, so they only come while the command loop
	// yields and distances are approximate
	r, err := robot.New(robot.Config{
		Sonars:           pins,
		Sonar:            sonar.DefaultConfig(),
		Timer:            &sonar.TickerTimer{},
		IRLeft:           &irLeft,
		IRRight:          &irRight,
		Red:              red,
		Green:            green,
		Blue:             blue,
		LeftMotor:        leftServo,
		LeftMotorConfig:  motor.Config{Direction: left.Direction, Step: left.Step},
		RightMotor:       rightServo,
		RightMotorConfig: motor.Config{Direction: right.Direction, Step: right.Step},
	})
	if err != nil {
		return Device{}, errors.New("error creating robot: " + err.Error())
	}

	return Device{r}, nil
}

func (d *Device) ReadByte() (byte, error) {
	return machine.Serial.ReadByte()
}

func (d *Device) WriteByte(b byte) error {
	return machine.Serial.WriteByte(b)
}

// pwmLevel drives one LED color with a PWM channel
type pwmLevel struct {
	group pwm.Group
	ch    uint8
	top   uint32
}

func newPWMLevel(pin machine.Pin, period time.Duration) (*pwmLevel, error) {
	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	group := pwm.Get(pin)
	group.Configure(machine.PWMConfig{Period: uint64(period.Nanoseconds())})
	ch, err := group.Channel(pin)
	if err != nil {
		return nil, err
	}
	group.Set(ch, 0)

	return &pwmLevel{group: group, ch: ch, top: group.Top()}, nil
}

func (l *pwmLevel) Set(level uint8) {
	l.group.Set(l.ch, l.top*uint32(level)/255)
}
