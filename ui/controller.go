package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dreamster-robot/dreamster/firmware/commands"
)

// controllerWrapper writes firmware commands for the UI's widgets
type controllerWrapper struct {
	writer         io.Writer
	lastEventTimer *timer

	mtx         sync.Mutex
	left, right int
}

// SetLeft sets the left motor speed, from -9 to 9
func (c *controllerWrapper) SetLeft(value float64) {
	c.mtx.Lock()
	c.left = int(value)
	c.mtx.Unlock()
	c.move()
}

// SetRight sets the right motor speed, from -9 to 9
func (c *controllerWrapper) SetRight(value float64) {
	c.mtx.Lock()
	c.right = int(value)
	c.mtx.Unlock()
	c.move()
}

func (c *controllerWrapper) move() {
	c.mtx.Lock()
	left, right := c.left, c.right
	c.mtx.Unlock()

	c.markEvent()
	fmt.Fprintf(c.writer, "%c%s%s\n", commands.MoveCommand.Flag, speedDigit(left), speedDigit(right))
}

// Stop stops both motors
func (c *controllerWrapper) Stop() {
	c.mtx.Lock()
	c.left, c.right = 0, 0
	c.mtx.Unlock()

	c.markEvent()
	fmt.Fprintf(c.writer, "%c\n", commands.StopCommand.Flag)
}

// Show sets the LED color, each from 0 to 9
func (c *controllerWrapper) Show(red, green, blue int) {
	fmt.Fprintf(c.writer, "%c%d%d%d\n", commands.LightCommand.Flag, clampDigit(red), clampDigit(green), clampDigit(blue))
}

// Poll asks for the distances and infrared readings
func (c *controllerWrapper) Poll() {
	fmt.Fprintf(c.writer, "%c\n%c\n", commands.ScanCommand.Flag, commands.IRCommand.Flag)
}

func (c *controllerWrapper) RunStateCommand(s state) {
	stateCommand := s.command()
	if stateCommand != "" {
		c.markEvent()
		fmt.Fprintf(c.writer, "%s\n", stateCommand)
	}
}

func (c *controllerWrapper) markEvent() {
	if c.lastEventTimer != nil {
		c.lastEventTimer.Set(time.Now())
	}
}

// speedDigit formats a speed like "+5" or "-3"
func speedDigit(speed int) string {
	if speed < 0 {
		return fmt.Sprintf("-%d", clampDigit(-speed))
	}
	return fmt.Sprintf("+%d", clampDigit(speed))
}

func clampDigit(d int) int {
	return min(max(d, 0), 9)
}
