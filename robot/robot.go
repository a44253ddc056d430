package robot

import (
	"errors"
	"runtime"
	"strconv"
	"time"

	"github.com/dreamster-robot/dreamster"
	"github.com/dreamster-robot/dreamster/motor"
	"github.com/dreamster-robot/dreamster/sonar"
)

// AnalogReader reads an analog input. machine.ADC satisfies it.
type AnalogReader interface {
	Get() uint16
}

// LevelWriter writes an 8-bit output level, like the brightness of one LED color
type LevelWriter interface {
	Set(level uint8)
}

// Clock is the monotonic time source used by Sleep
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config binds the robot's parts to its hardware
type Config struct {
	Sonars [dreamster.NumChannels]sonar.Pins
	Sonar  sonar.Config
	Timer  sonar.Timer

	IRLeft  AnalogReader
	IRRight AnalogReader

	Red   LevelWriter
	Green LevelWriter
	Blue  LevelWriter

	LeftMotor        motor.Actuator
	LeftMotorConfig  motor.Config
	RightMotor       motor.Actuator
	RightMotorConfig motor.Config

	// Clock defaults to the system clock
	Clock Clock
}

// Robot is the Dreamster: three ultrasonic ranging channels run from a periodic timer, two infrared
// sensors, an RGB LED and two ramped drive motors. Except for Scan and friends, which only read values
// published by the timer, its methods belong to the main loop.
type Robot struct {
	sequencer  *sonar.Sequencer
	dispatcher *sonar.Dispatcher

	irLeft, irRight  AnalogReader
	red, green, blue LevelWriter

	left, right *motor.Motor

	clock     Clock
	startTime time.Time
	verbose   bool
}

// New creates the Robot with its motors stopped and the ranging timer disabled
func New(cfg Config) (*Robot, error) {
	for i, p := range cfg.Sonars {
		if p.Trigger == nil || p.Echo == nil {
			return nil, errors.New("missing pins for sonar " + dreamster.Channel(i).String())
		}
	}
	if cfg.Timer == nil {
		return nil, errors.New("missing timer")
	}
	if cfg.IRLeft == nil || cfg.IRRight == nil {
		return nil, errors.New("missing infrared inputs")
	}
	if cfg.Red == nil || cfg.Green == nil || cfg.Blue == nil {
		return nil, errors.New("missing LED outputs")
	}
	if cfg.LeftMotor == nil || cfg.RightMotor == nil {
		return nil, errors.New("missing motor actuators")
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}

	left, err := motor.New(cfg.LeftMotor, cfg.LeftMotorConfig)
	if err != nil {
		return nil, errors.New("error creating left motor: " + err.Error())
	}
	right, err := motor.New(cfg.RightMotor, cfg.RightMotorConfig)
	if err != nil {
		return nil, errors.New("error creating right motor: " + err.Error())
	}

	sequencer := sonar.NewSequencer(cfg.Sonars, cfg.Sonar)

	return &Robot{
		sequencer:  sequencer,
		dispatcher: sonar.NewDispatcher(sequencer, cfg.Timer, cfg.Sonar.TickPeriod),
		irLeft:     cfg.IRLeft,
		irRight:    cfg.IRRight,
		red:        cfg.Red,
		green:      cfg.Green,
		blue:       cfg.Blue,
		left:       left,
		right:      right,
		clock:      cfg.Clock,
	}, nil
}

// Initialize turns the LED off and arms the ranging timer
func (r *Robot) Initialize() {
	r.dispatcher.Disable()
	r.Show(0, 0, 0)
	r.startTime = r.clock.Now()
	r.dispatcher.Enable()

	println(r.ts(), "Initialized, tick", r.dispatcher.Period().String())
}

// Scan returns the latest distance of every ranging channel in centimeters. Zero means no valid echo.
func (r *Robot) Scan() (a, b, c uint) {
	return r.ScanA(), r.ScanB(), r.ScanC()
}

// ScanA returns the latest distance of channel A
func (r *Robot) ScanA() uint {
	return r.sequencer.Distance(dreamster.ChannelA)
}

// ScanB returns the latest distance of channel B
func (r *Robot) ScanB() uint {
	return r.sequencer.Distance(dreamster.ChannelB)
}

// ScanC returns the latest distance of channel C
func (r *Robot) ScanC() uint {
	return r.sequencer.Distance(dreamster.ChannelC)
}

// ReadIR reads the left and right infrared sensors
func (r *Robot) ReadIR() (left, right uint16) {
	return r.irLeft.Get(), r.irRight.Get()
}

// Show sets the RGB LED color
func (r *Robot) Show(red, green, blue uint8) {
	r.red.Set(red)
	r.green.Set(green)
	r.blue.Set(blue)
}

// Move sets the target speeds of the motors. They reach it through Update.
func (r *Robot) Move(left, right int) {
	if r.verbose {
		println(r.ts(), "Move", left, right)
	}
	r.right.SetTarget(right)
	r.left.SetTarget(left)
}

// Update advances both motor ramps by one step
func (r *Robot) Update() {
	err := r.left.Advance()
	if err != nil {
		println(r.ts(), "error updating left motor:", err.Error())
	}
	err = r.right.Advance()
	if err != nil {
		println(r.ts(), "error updating right motor:", err.Error())
	}
}

// Sleep keeps updating the motors until d has passed
func (r *Robot) Sleep(d time.Duration) {
	start := r.clock.Now()
	for r.clock.Now().Sub(start) < d {
		r.Update()
		runtime.Gosched()
	}
}

// Speeds returns the current left and right motor speeds
func (r *Robot) Speeds() (left, right int) {
	return r.left.Speed(), r.right.Speed()
}

// Timeouts returns the echo timeout counters of every channel
func (r *Robot) Timeouts() [dreamster.NumChannels]sonar.Timeouts {
	var t [dreamster.NumChannels]sonar.Timeouts
	for i := range t {
		t[i] = r.sequencer.Sensor(dreamster.Channel(i)).Timeouts()
	}
	return t
}

// Dispatcher returns the ranging timer entry point
func (r *Robot) Dispatcher() *sonar.Dispatcher {
	return r.dispatcher
}

// Debug prints the robot's state
func (r *Robot) Debug() {
	println(r.DebugString())
}

// DebugString formats the robot's state like
// "[1.5s] A=20 B=35 C=0 next=B/S L=10 R=-10 timeouts=0/0,0/0,4/0 overruns=0"
func (r *Robot) DebugString() string {
	a, b, c := r.Scan()
	state, next := r.sequencer.Debug()
	left, right := r.Speeds()

	d := r.ts()
	d += " A=" + utoa(a) + " B=" + utoa(b) + " C=" + utoa(c)
	d += " next=" + next.String() + "/" + string(byte(state))
	d += " L=" + strconv.Itoa(left) + " R=" + strconv.Itoa(right)
	d += " timeouts="
	for i, t := range r.Timeouts() {
		if i > 0 {
			d += ","
		}
		d += utoa(uint(t.Wait)) + "/" + utoa(uint(t.Measure))
	}
	d += " overruns=" + utoa(uint(r.dispatcher.Overruns()))
	return d
}

// Verbose increases logging
func (r *Robot) Verbose() {
	r.verbose = true
	println(r.ts(), "Set Verbose Mode")
}

// ts returns the time since Initialize for logging
func (r *Robot) ts() string {
	if r.startTime.IsZero() {
		return "[-]"
	}
	return "[" + r.clock.Now().Sub(r.startTime).String() + "]"
}

func utoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
