package ui

import "github.com/dreamster-robot/dreamster/controller"

// state is the stage of a run, advanced by the operator
type state int

const (
	stateNone state = iota
	stateCalibrate
	stateExplore
	stateReturn
	stateDone
)

func (s state) String() string {
	switch s {
	case stateCalibrate:
		return "Calibrate"
	case stateExplore:
		return "Explore"
	case stateReturn:
		return "Return"
	case stateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

func (s state) next() state {
	if s == stateDone {
		// Done has no next state
		return stateDone
	}
	return s + 1
}

// command returns the lines sent to the controller when entering the state. Lines starting with '#' are
// recorded as stages.
func (s state) command() string {
	switch s {
	case stateCalibrate:
		// stopped, blue light, report every sensor once
		return "#Calibrate\nX\nL009\nS\nI"
	case stateExplore:
		return "#Explore\nL090"
	case stateReturn:
		return "#Return\nL990"
	case stateDone:
		return "X\nL000\n" + controller.DoneCommand
	default:
		return ""
	}
}
