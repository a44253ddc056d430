package sonar

import "time"

const (
	// DefaultTickPeriod is the timer period. One tick is roughly the round trip time of sound over 1cm.
	DefaultTickPeriod = 58 * time.Microsecond
	// DefaultTriggerPulse is the minimum trigger pulse of an HC-SR04
	DefaultTriggerPulse = 10 * time.Microsecond
	// DefaultWaitEchoTimeout is the number of ticks to wait for an echo to start
	DefaultWaitEchoTimeout = 16
	// DefaultMeasureTimeout is the number of ticks after which an echo is considered lost
	DefaultMeasureTimeout = 800
)

// Config has the timing values for the ranging channels. Zero values are replaced by defaults.
type Config struct {
	TickPeriod      time.Duration
	TriggerPulse    time.Duration
	WaitEchoTimeout uint32
	MeasureTimeout  uint32

	// Delay holds the trigger line high. It runs in the ticking context, so it must spin rather than sleep.
	Delay func(time.Duration)
}

// DefaultConfig returns the timing used on the robot
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.TickPeriod == 0 {
		c.TickPeriod = DefaultTickPeriod
	}
	if c.TriggerPulse == 0 {
		c.TriggerPulse = DefaultTriggerPulse
	}
	if c.WaitEchoTimeout == 0 {
		c.WaitEchoTimeout = DefaultWaitEchoTimeout
	}
	if c.MeasureTimeout == 0 {
		c.MeasureTimeout = DefaultMeasureTimeout
	}
	if c.Delay == nil {
		c.Delay = BusyWait
	}
	return c
}

// BusyWait spins until d has elapsed
func BusyWait(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}
