package simulator

import (
	"errors"
	"sync"
	"time"

	"github.com/dreamster-robot/dreamster"
	"github.com/dreamster-robot/dreamster/motor"
	"github.com/dreamster-robot/dreamster/robot"
	"github.com/dreamster-robot/dreamster/sonar"
)

// Timer is a manually stepped sonar.Timer. Its tick count is the simulation's time.
type Timer struct {
	mtx     sync.Mutex
	period  time.Duration
	tick    func()
	running bool
	ticks   uint64
}

func (t *Timer) Start(period time.Duration, tick func()) {
	t.mtx.Lock()
	t.period = period
	t.tick = tick
	t.running = true
	t.mtx.Unlock()
}

func (t *Timer) Stop() {
	t.mtx.Lock()
	t.running = false
	t.mtx.Unlock()
}

// Step advances time by n ticks, calling the tick function while the timer runs
func (t *Timer) Step(n int) {
	for range n {
		t.mtx.Lock()
		t.ticks++
		tick, running := t.tick, t.running
		t.mtx.Unlock()

		if running {
			tick()
		}
	}
}

// Ticks returns the number of ticks elapsed
func (t *Timer) Ticks() uint64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.ticks
}

// Elapsed returns the simulated time
func (t *Timer) Elapsed() time.Duration {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return time.Duration(t.ticks) * t.period
}

// clock preempts the main loop with one timer tick every time it is read, the way the timer
// interrupt does on the robot
type clock struct {
	timer *Timer
	epoch time.Time
}

func (c clock) Now() time.Time {
	c.timer.Step(1)
	return c.epoch.Add(c.timer.Elapsed())
}

// Simulator runs a robot.Robot against simulated hardware
type Simulator struct {
	Robot *robot.Robot

	Timer  *Timer
	Sonars [dreamster.NumChannels]*Sonar

	IRLeft  *Analog
	IRRight *Analog

	Red   *Level
	Green *Level
	Blue  *Level

	LeftMotor  *Servo
	RightMotor *Servo
}

// New creates a Simulator for the scenario. The robot is not initialized.
func New(scenario Scenario) (*Simulator, error) {
	timer := &Timer{period: sonar.DefaultTickPeriod}
	sim := &Simulator{
		Timer:      timer,
		IRLeft:     &Analog{value: scenario.IR.Left},
		IRRight:    &Analog{value: scenario.IR.Right},
		Red:        &Level{},
		Green:      &Level{},
		Blue:       &Level{},
		LeftMotor:  &Servo{},
		RightMotor: &Servo{},
	}

	if len(scenario.Sonars) > dreamster.NumChannels {
		return nil, errors.New("too many sonars in scenario")
	}

	var pins [dreamster.NumChannels]sonar.Pins
	for i := range sim.Sonars {
		var cfg SonarScenario
		if i < len(scenario.Sonars) {
			cfg = scenario.Sonars[i]
		}
		sim.Sonars[i] = newSonar(timer, cfg)
		pins[i] = sonar.Pins{Trigger: TriggerPin{sim.Sonars[i]}, Echo: EchoPin{sim.Sonars[i]}}
	}

	r, err := robot.New(robot.Config{
		Sonars: pins,
		// the trigger pulse happens inside a single simulated tick
		Sonar:            sonar.Config{Delay: func(time.Duration) {}},
		Timer:            timer,
		IRLeft:           sim.IRLeft,
		IRRight:          sim.IRRight,
		Red:              sim.Red,
		Green:            sim.Green,
		Blue:             sim.Blue,
		LeftMotor:        sim.LeftMotor,
		LeftMotorConfig:  motor.Config{Direction: motor.Forward, Step: scenario.MotorStep},
		RightMotor:       sim.RightMotor,
		RightMotorConfig: motor.Config{Direction: motor.Reverse, Step: scenario.MotorStep},
		Clock:            clock{timer: timer, epoch: time.Unix(0, 0)},
	})
	if err != nil {
		return nil, errors.New("error creating robot: " + err.Error())
	}
	sim.Robot = r

	return sim, nil
}

// Run advances the simulation by n timer ticks
func (s *Simulator) Run(n int) {
	s.Timer.Step(n)
}

// RunFor advances the simulation by d of simulated time
func (s *Simulator) RunFor(d time.Duration) {
	s.Timer.Step(int(d / sonar.DefaultTickPeriod))
}
