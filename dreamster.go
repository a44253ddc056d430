package dreamster

import (
	"errors"
	"strconv"
	"strings"
)

// NumChannels is the number of ultrasonic ranging channels on the robot
const NumChannels = 3

// Channel identifies one of the ultrasonic ranging channels
type Channel int

const (
	ChannelA Channel = iota
	ChannelB
	ChannelC
)

func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	case ChannelC:
		return "C"
	default:
		return "Unknown"
	}
}

// Next returns the channel that fires after c in round-robin order
func (c Channel) Next() Channel {
	if c == ChannelC {
		return ChannelA
	}
	return c + 1
}

// SonarState is the state of a ranging channel's state machine. The values are the single
// characters printed in debug output.
type SonarState byte

const (
	SonarBeginTrigger SonarState = 'T'
	SonarWaitingEcho  SonarState = 'W'
	SonarMeasuring    SonarState = 'M'
	SonarCooldown     SonarState = 'C'
	SonarStandby      SonarState = 'S'
)

func (s SonarState) String() string {
	switch s {
	case SonarBeginTrigger:
		return "BeginTrigger"
	case SonarWaitingEcho:
		return "WaitingEcho"
	case SonarMeasuring:
		return "Measuring"
	case SonarCooldown:
		return "Cooldown"
	case SonarStandby:
		return "Standby"
	default:
		return "Unknown"
	}
}

// Telemetry line prefixes written by the firmware
const (
	TelemetryScan byte = 'S'
	TelemetryIR   byte = 'I'
)

// ErrInvalidTelemetry is returned when a line is not a telemetry line
var ErrInvalidTelemetry = errors.New("invalid telemetry")

// Telemetry is a parsed firmware telemetry line
type Telemetry struct {
	Kind   byte
	Values []int
}

// String formats the telemetry as the firmware writes it
func (t Telemetry) String() string {
	s := string(t.Kind)
	for _, v := range t.Values {
		s += " " + strconv.Itoa(v)
	}
	return s
}

// FormatScan formats the three distances as a scan telemetry line, like "S 12 0 140"
func FormatScan(a, b, c uint) string {
	return string(TelemetryScan) + " " + utoa(a) + " " + utoa(b) + " " + utoa(c)
}

// FormatIR formats the two infrared readings as an IR telemetry line, like "I 512 498"
func FormatIR(left, right uint16) string {
	return string(TelemetryIR) + " " + utoa(uint(left)) + " " + utoa(uint(right))
}

// ParseTelemetry parses a scan or IR line. A leading "[timestamp]" written by the firmware is ignored.
func ParseTelemetry(line string) (Telemetry, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "[") {
		end := strings.Index(line, "]")
		if end < 0 {
			return Telemetry{}, ErrInvalidTelemetry
		}
		line = strings.TrimSpace(line[end+1:])
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || len(fields[0]) != 1 {
		return Telemetry{}, ErrInvalidTelemetry
	}

	kind := fields[0][0]
	var expected int
	switch kind {
	case TelemetryScan:
		expected = NumChannels
	case TelemetryIR:
		expected = 2
	default:
		return Telemetry{}, ErrInvalidTelemetry
	}
	if len(fields)-1 != expected {
		return Telemetry{}, ErrInvalidTelemetry
	}

	t := Telemetry{Kind: kind, Values: make([]int, 0, expected)}
	for _, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return Telemetry{}, ErrInvalidTelemetry
		}
		t.Values = append(t.Values, v)
	}
	return t, nil
}

func utoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
