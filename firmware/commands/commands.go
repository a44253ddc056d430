package commands

import (
	"errors"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/dreamster-robot/dreamster"
)

// SpeedPerDigit converts a speed digit of the Move command into motor speed
const SpeedPerDigit = 10

type Command struct {
	Flag        byte
	InputSize   uint
	Run         func(Controller, []byte) error
	Description string
}

// Controller is used to control the robot
type Controller interface {
	Move(left, right int)
	Scan() (a, b, c uint)
	ReadIR() (left, right uint16)
	Show(red, green, blue uint8)
	Sleep(time.Duration)
	Update()
	Debug()
	Verbose()

	// I/O
	ReadByte() (byte, error)
	WriteByte(byte) error
}

var (
	MoveCommand = &Command{
		Flag:      'M',
		InputSize: 4,
		Run: func(c Controller, input []byte) error {
			left, err := signedDigit(input[0], input[1])
			if err != nil {
				return err
			}
			right, err := signedDigit(input[2], input[3])
			if err != nil {
				return err
			}
			c.Move(left*SpeedPerDigit, right*SpeedPerDigit)
			return nil
		},
		Description: "Set the motor speeds. Input: left and right as sign and digit, like '+5-5'.",
	}
	StopCommand = &Command{
		Flag:      'X',
		InputSize: 0,
		Run: func(c Controller, input []byte) error {
			c.Move(0, 0)
			return nil
		},
		Description: "Ramp both motors down to a stop.",
	}
	ScanCommand = &Command{
		Flag:      'S',
		InputSize: 0,
		Run: func(c Controller, input []byte) error {
			a, b, d := c.Scan()
			return writeLine(c, dreamster.FormatScan(a, b, d))
		},
		Description: "Print the latest distance of each sonar in centimeters. 0 means no echo.",
	}
	IRCommand = &Command{
		Flag:      'I',
		InputSize: 0,
		Run: func(c Controller, input []byte) error {
			left, right := c.ReadIR()
			return writeLine(c, dreamster.FormatIR(left, right))
		},
		Description: "Print the left and right infrared readings.",
	}
	LightCommand = &Command{
		Flag:      'L',
		InputSize: 3,
		Run: func(c Controller, input []byte) error {
			var levels [3]uint8
			for i, in := range input {
				d, ok := digit(in)
				if !ok {
					return errors.New("invalid input: " + string(input))
				}
				levels[i] = uint8(d * 255 / 9)
			}
			c.Show(levels[0], levels[1], levels[2])
			return nil
		},
		Description: "Set the LED color. Input: red, green and blue as digits 0-9.",
	}
	WaitCommand = &Command{
		Flag:      'W',
		InputSize: 1,
		Run: func(c Controller, input []byte) error {
			d, ok := digit(input[0])
			if !ok {
				return errors.New("invalid input: " + string(input))
			}
			c.Sleep(time.Duration(d) * 100 * time.Millisecond)
			return nil
		},
		Description: "Keep ramping the motors without reading commands. Input: 0-9 tenths of a second.",
	}
	DebugCommand = &Command{
		Flag:      'D',
		InputSize: 0,
		Run: func(c Controller, input []byte) error {
			c.Debug()
			return nil
		},
		Description: "Print the current state.",
	}
	VerboseCommand = &Command{
		Flag:      'V',
		InputSize: 0,
		Run: func(c Controller, input []byte) error {
			c.Verbose()
			return nil
		},
		Description: "Enable verbose output.",
	}
	HelpCommand = &Command{
		Flag:        'H',
		InputSize:   0,
		Description: "Show all available commands and their descriptions.",
		Run: func(c Controller, input []byte) error {
			err := writeLine(c, "Available Commands:")
			if err != nil {
				return err
			}
			for _, cmd := range commands {
				err = writeLine(c, Describe(cmd))
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
)

var commands = []*Command{
	MoveCommand,
	StopCommand,
	ScanCommand,
	IRCommand,
	LightCommand,
	WaitCommand,
	DebugCommand,
	VerboseCommand,
}

// Run reads and runs commands until the input reaches io.EOF. While no input is available it keeps
// updating the motors.
func Run(c Controller) {
	cmdMap := map[byte]*Command{
		HelpCommand.Flag: HelpCommand,
	}

	for _, cmd := range commands {
		cmdMap[cmd.Flag] = cmd
	}

	for {
		cmdIn, err := readByte(c)
		if err != nil {
			return
		}

		cmd, ok := cmdMap[cmdIn]
		if !ok {
			continue
		}

		in := make([]byte, cmd.InputSize)
		for i := range in {
			in[i], err = readByte(c)
			if err != nil {
				return
			}
		}

		err = cmd.Run(c, in)
		if err != nil {
			println("error:", err.Error())
		}
	}
}

// readByte waits for the next input byte, updating the motors in the meantime. It only fails with
// io.EOF.
func readByte(c Controller) (byte, error) {
	for {
		b, err := c.ReadByte()
		if err == nil {
			return b, nil
		}
		if errors.Is(err, io.EOF) {
			return 0, err
		}
		c.Update()
		runtime.Gosched()
	}
}

func writeLine(c Controller, line string) error {
	for i := 0; i < len(line); i++ {
		err := c.WriteByte(line[i])
		if err != nil {
			return err
		}
	}
	err := c.WriteByte('\r')
	if err != nil {
		return err
	}
	return c.WriteByte('\n')
}

func digit(b byte) (int, bool) {
	if b < '0' || b > '9' {
		return 0, false
	}
	return int(b - '0'), true
}

func signedDigit(sign, b byte) (int, error) {
	d, ok := digit(b)
	if !ok {
		return 0, errors.New("invalid speed: " + string([]byte{sign, b}))
	}
	switch sign {
	case '+':
		return d, nil
	case '-':
		return -d, nil
	default:
		return 0, errors.New("invalid speed: " + string([]byte{sign, b}))
	}
}

// Describe formats a command for help output, like "M(4): Set the motor speeds..."
func Describe(cmd *Command) string {
	return string(cmd.Flag) + "(" + strconv.Itoa(int(cmd.InputSize)) + "): " + cmd.Description
}
