package controller

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dreamster-robot/dreamster/twchart"
)

type twchartClient interface {
	CreateSession(ctx context.Context, runName string, probes twchart.Probes) (string, error)
	SetStartTime(ctx context.Context, startTime time.Time) error
	AddEvent(ctx context.Context, note string, now time.Time) error
	AddStage(ctx context.Context, name string, now time.Time) error
	Done(ctx context.Context) error
}

var _ twchartClient = &twchart.Client{}

// skippedRecorder is used when TWCHART_ADDR is not set. It only counts what would have been recorded
type skippedRecorder struct {
	events atomic.Uint32
	stages atomic.Uint32
}

var _ twchartClient = &skippedRecorder{}

func (r *skippedRecorder) CreateSession(context.Context, string, twchart.Probes) (string, error) {
	return "", nil
}

func (r *skippedRecorder) SetStartTime(context.Context, time.Time) error {
	return nil
}

func (r *skippedRecorder) AddEvent(context.Context, string, time.Time) error {
	r.events.Add(1)
	return nil
}

func (r *skippedRecorder) AddStage(context.Context, string, time.Time) error {
	r.stages.Add(1)
	return nil
}

func (r *skippedRecorder) Done(context.Context) error {
	return nil
}

// String summarizes the skipped recordings, like "not recorded: events=3 stages=1"
func (r *skippedRecorder) String() string {
	return "not recorded: events=" + strconv.FormatUint(uint64(r.events.Load()), 10) +
		" stages=" + strconv.FormatUint(uint64(r.stages.Load()), 10)
}
