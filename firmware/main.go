//go:build tinygo

package main

import (
	"machine"

	"github.com/dreamster-robot/dreamster/firmware/commands"
	"github.com/dreamster-robot/dreamster/firmware/device"
	"github.com/dreamster-robot/dreamster/motor"
)

func main() {
	sonars := [3]device.SonarConfig{
		{Trigger: machine.GP2, Echo: machine.GP3},
		{Trigger: machine.GP4, Echo: machine.GP5},
		{Trigger: machine.GP6, Echo: machine.GP7},
	}

	irCfg := device.IRConfig{
		Left:  machine.ADC0,
		Right: machine.ADC1,
	}

	lightCfg := device.LightConfig{
		Red:   machine.GP10,
		Green: machine.GP11,
		Blue:  machine.GP12,
	}

	// the motors face opposite directions, so the right one runs reversed
	leftCfg := device.MotorConfig{
		Pin:       machine.GP20,
		PWM:       machine.PWM2,
		Direction: motor.Forward,
		Step:      motor.DefaultStep,
	}
	rightCfg := device.MotorConfig{
		Pin:       machine.GP22,
		PWM:       machine.PWM3,
		Direction: motor.Reverse,
		Step:      motor.DefaultStep,
	}

	d, err := device.New(sonars, irCfg, lightCfg, leftCfg, rightCfg)
	if err != nil {
		panic(err)
	}

	d.Initialize()

	commands.Run(&d)
}
