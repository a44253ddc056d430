package simulator

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dreamster-robot/dreamster"
	"gopkg.in/yaml.v3"
)

// Scenario describes the world around a simulated robot and what its main loop does
type Scenario struct {
	Name      string          `yaml:"name"`
	MotorStep int             `yaml:"motor_step"`
	Sonars    []SonarScenario `yaml:"sonars"`
	IR        IRScenario      `yaml:"ir"`
	Steps     []Step          `yaml:"steps"`
}

// SonarScenario places an obstacle in front of one ranging channel
type SonarScenario struct {
	// Distance in centimeters; zero means nothing in range
	Distance uint `yaml:"distance"`
	// Latency in ticks before the echo starts
	Latency uint `yaml:"latency"`
	// Stuck keeps the echo line high forever
	Stuck bool `yaml:"stuck"`
}

// IRScenario has the fixed infrared readings
type IRScenario struct {
	Left  uint16 `yaml:"left"`
	Right uint16 `yaml:"right"`
}

// Step is one action of the main loop, applied in order: obstacles, color, move, then sleep
type Step struct {
	Distances []uint        `yaml:"distances,flow"`
	Color     []uint8       `yaml:"color,flow"`
	Move      []int         `yaml:"move,flow"`
	Sleep     time.Duration `yaml:"sleep"`
}

// LoadScenario reads a YAML scenario file
func LoadScenario(filename string) (Scenario, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Scenario{}, fmt.Errorf("error opening scenario: %w", err)
	}
	defer f.Close()

	return ParseScenario(f)
}

// ParseScenario decodes and validates a YAML scenario
func ParseScenario(r io.Reader) (Scenario, error) {
	var s Scenario
	err := yaml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Scenario{}, fmt.Errorf("error decoding scenario: %w", err)
	}

	if len(s.Sonars) > dreamster.NumChannels {
		return Scenario{}, fmt.Errorf("scenario has %d sonars, the robot has %d", len(s.Sonars), dreamster.NumChannels)
	}
	for i, step := range s.Steps {
		if step.Distances != nil && len(step.Distances) != dreamster.NumChannels {
			return Scenario{}, fmt.Errorf("step %d: distances needs %d values", i, dreamster.NumChannels)
		}
		if step.Color != nil && len(step.Color) != 3 {
			return Scenario{}, fmt.Errorf("step %d: color needs 3 values", i)
		}
		if step.Move != nil && len(step.Move) != 2 {
			return Scenario{}, fmt.Errorf("step %d: move needs left and right speeds", i)
		}
	}

	return s, nil
}

// Play initializes the robot and runs the scenario's steps. After every step it calls report, if
// not nil.
func (s *Simulator) Play(scenario Scenario, report func(step int)) {
	s.Robot.Initialize()

	for i, step := range scenario.Steps {
		for ch, d := range step.Distances {
			s.Sonars[ch].SetDistance(d)
		}
		if step.Color != nil {
			s.Robot.Show(step.Color[0], step.Color[1], step.Color[2])
		}
		if step.Move != nil {
			s.Robot.Move(step.Move[0], step.Move[1])
		}
		s.Robot.Sleep(step.Sleep)

		if report != nil {
			report(i)
		}
	}
}
