package simulator

import (
	"strings"
	"testing"
	"time"

	"github.com/dreamster-robot/dreamster"
	"github.com/dreamster-robot/dreamster/motor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectedErr string
	}{
		{
			"Valid",
			"sonars: [{distance: 10}]\nsteps:\n  - move: [1, 2]\n    sleep: 10ms\n",
			"",
		},
		{
			"TooManySonars",
			"sonars: [{}, {}, {}, {}]\n",
			"scenario has 4 sonars, the robot has 3",
		},
		{
			"BadMove",
			"steps:\n  - move: [1]\n",
			"step 0: move needs left and right speeds",
		},
		{
			"BadColor",
			"steps:\n  - color: [1, 2]\n",
			"step 0: color needs 3 values",
		},
		{
			"BadDistances",
			"steps:\n  - distances: [1, 2]\n",
			"step 0: distances needs 3 values",
		},
		{
			"InvalidYAML",
			"sonars: {",
			"error decoding scenario",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario(strings.NewReader(tt.input))
			if tt.expectedErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/corridor.yaml")
	require.NoError(t, err)

	assert.Equal(t, "corridor", s.Name)
	assert.Equal(t, 2, s.MotorStep)
	assert.Equal(t, []SonarScenario{{Distance: 20}, {}, {Distance: 55, Latency: 5}}, s.Sonars)
	assert.Equal(t, IRScenario{Left: 512, Right: 300}, s.IR)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, 500*time.Millisecond, s.Steps[0].Sleep)
	assert.Equal(t, []int{30, 30}, s.Steps[0].Move)
	assert.Equal(t, []uint{12, 80, 55}, s.Steps[1].Distances)

	_, err = LoadScenario("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestSimulatorRanging(t *testing.T) {
	sim, err := New(Scenario{
		Sonars: []SonarScenario{{Distance: 20}, {}, {Distance: 55, Latency: 5}},
	})
	require.NoError(t, err)

	sim.Robot.Initialize()
	sim.RunFor(500 * time.Millisecond)

	a, b, c := sim.Robot.Scan()
	assert.Equal(t, uint(20), a)
	assert.Equal(t, uint(0), b)
	assert.Equal(t, uint(55), c)

	for _, s := range sim.Sonars {
		assert.Greater(t, s.Pulses(), 1)
	}

	timeouts := sim.Robot.Timeouts()
	assert.Zero(t, timeouts[dreamster.ChannelA].Wait)
	assert.Positive(t, timeouts[dreamster.ChannelB].Wait)
	assert.Zero(t, timeouts[dreamster.ChannelC].Measure)
}

func TestSimulatorStoppedTimer(t *testing.T) {
	sim, err := New(Scenario{Sonars: []SonarScenario{{Distance: 20}}})
	require.NoError(t, err)

	// without Initialize the timer never runs
	sim.Run(10000)
	assert.Equal(t, 0, sim.Sonars[0].Pulses())
	assert.Equal(t, uint(0), sim.Robot.ScanA())

	sim.Robot.Initialize()
	sim.Run(10000)
	assert.Equal(t, uint(20), sim.Robot.ScanA())

	sim.Robot.Dispatcher().Disable()
	pulses := sim.Sonars[0].Pulses()
	sim.Run(10000)
	assert.Equal(t, pulses, sim.Sonars[0].Pulses())
}

func TestSimulatorStuckEcho(t *testing.T) {
	sim, err := New(Scenario{
		Sonars: []SonarScenario{{Distance: 30}, {Stuck: true}, {Distance: 40}},
	})
	require.NoError(t, err)

	sim.Robot.Initialize()
	sim.RunFor(2 * time.Second)

	a, b, c := sim.Robot.Scan()
	assert.Equal(t, uint(30), a)
	assert.Equal(t, uint(0), b)
	assert.Equal(t, uint(40), c)
	assert.Positive(t, sim.Robot.Timeouts()[dreamster.ChannelB].Measure)
}

func TestSimulatorPlay(t *testing.T) {
	scenario, err := LoadScenario("testdata/corridor.yaml")
	require.NoError(t, err)

	sim, err := New(scenario)
	require.NoError(t, err)

	var scans [][3]uint
	sim.Play(scenario, func(step int) {
		a, b, c := sim.Robot.Scan()
		scans = append(scans, [3]uint{a, b, c})

		switch step {
		case 0:
			left, right := sim.Robot.Speeds()
			assert.Equal(t, 30, left)
			assert.Equal(t, 30, right)
			assert.Equal(t, motor.Center+30, sim.LeftMotor.Angle())
			assert.Equal(t, motor.Center-30, sim.RightMotor.Angle())
			assert.Equal(t, uint8(255), sim.Green.Level())

			irLeft, irRight := sim.Robot.ReadIR()
			assert.Equal(t, uint16(512), irLeft)
			assert.Equal(t, uint16(300), irRight)
		case 1:
			left, right := sim.Robot.Speeds()
			assert.Equal(t, -20, left)
			assert.Equal(t, 20, right)
		case 2:
			assert.Equal(t, motor.Center, sim.LeftMotor.Angle())
			assert.Equal(t, motor.Center, sim.RightMotor.Angle())
			assert.Equal(t, uint8(255), sim.Red.Level())
			assert.Equal(t, uint8(0), sim.Green.Level())
		}
	})

	assert.Equal(t, [][3]uint{{20, 0, 55}, {12, 80, 55}, {12, 80, 55}}, scans)
}
