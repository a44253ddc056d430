package sonar

import (
	"sync/atomic"

	"github.com/dreamster-robot/dreamster"
)

// Sequencer owns the ranging channels and fires them one at a time in round-robin order, so that
// only one ultrasonic burst is ever in flight.
type Sequencer struct {
	sensors [dreamster.NumChannels]Sensor
	next    dreamster.Channel

	// debug packs the state of the next channel and its index for readers outside the tick
	debug atomic.Uint32
}

// NewSequencer creates the channels in Standby. Channel A fires first.
func NewSequencer(pins [dreamster.NumChannels]Pins, cfg Config) *Sequencer {
	s := &Sequencer{next: dreamster.ChannelA}
	for i := range s.sensors {
		s.sensors[i].init(pins[i], cfg)
	}
	s.publishDebug()
	return s
}

// Tick runs one state machine tick for every channel and, when all of them are in Standby, starts
// the next channel.
func (s *Sequencer) Tick() {
	allStandby := true
	for i := range s.sensors {
		s.sensors[i].Tick()
		if s.sensors[i].state != dreamster.SonarStandby {
			allStandby = false
		}
	}

	s.publishDebug()

	if allStandby {
		s.sensors[s.next].Trigger()
		s.next = s.next.Next()
	}
}

func (s *Sequencer) publishDebug() {
	s.debug.Store(uint32(s.sensors[s.next].state)<<8 | uint32(s.next))
}

// Sensor returns the Sensor for a channel
func (s *Sequencer) Sensor(c dreamster.Channel) *Sensor {
	return &s.sensors[c]
}

// Distance returns the latest distance for a channel. It is safe to call from any goroutine.
func (s *Sequencer) Distance(c dreamster.Channel) uint {
	return s.sensors[c].Distance()
}

// Distances returns the latest distance of every channel. The values are not a consistent snapshot.
func (s *Sequencer) Distances() [dreamster.NumChannels]uint {
	var d [dreamster.NumChannels]uint
	for i := range s.sensors {
		d[i] = s.sensors[i].Distance()
	}
	return d
}

// Next returns the channel that fires next
func (s *Sequencer) Next() dreamster.Channel {
	return s.next
}

// Debug returns the state of the channel scheduled next, as seen at the end of the last tick, and
// that channel. It is safe to call from any goroutine.
func (s *Sequencer) Debug() (dreamster.SonarState, dreamster.Channel) {
	v := s.debug.Load()
	return dreamster.SonarState(v >> 8), dreamster.Channel(v & 0xFF)
}
