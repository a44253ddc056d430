package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dreamster-robot/dreamster"
	"github.com/dreamster-robot/dreamster/twchart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTWChart struct {
	session string
	probes  twchart.Probes
	started bool
	events  []string
	stages  []string
	done    bool

	createErr error
	eventErr  error
}

func (f *fakeTWChart) CreateSession(_ context.Context, runName string, probes twchart.Probes) (string, error) {
	f.session, f.probes = runName, probes
	return "run1", f.createErr
}

func (f *fakeTWChart) SetStartTime(context.Context, time.Time) error {
	f.started = true
	return nil
}

func (f *fakeTWChart) AddEvent(_ context.Context, note string, _ time.Time) error {
	f.events = append(f.events, note)
	return f.eventErr
}

func (f *fakeTWChart) AddStage(_ context.Context, name string, _ time.Time) error {
	f.stages = append(f.stages, name)
	return nil
}

func (f *fakeTWChart) Done(context.Context) error {
	f.done = true
	return nil
}

type safeBuffer struct {
	mtx sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.buf.String()
}

// fakePort reads what the test writes to robot and records what the Controller writes
type fakePort struct {
	*io.PipeReader
	robot   *io.PipeWriter
	written safeBuffer
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{PipeReader: r, robot: w}
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	return p.PipeReader.Close()
}

func testConfig() Config {
	return Config{
		SerialPort:  SerialPortNone,
		BaudRate:    "9600",
		SessionName: "Corridor",
	}
}

func TestRunDryRun(t *testing.T) {
	client := &fakeTWChart{}
	c := newController(testConfig(), nil, client)

	var out safeBuffer
	in := strings.NewReader("M+5+5\n\n# Explore\nS\nDONE\nX\n")
	err := c.Run(context.Background(), in, &out)
	require.NoError(t, err)

	assert.Equal(t, "dry run: M+5+5\ndry run: S\n", out.String())
	assert.Equal(t, "Corridor", client.session)
	assert.Equal(t, twchart.ChannelProbes(), client.probes)
	assert.True(t, client.started)
	assert.Equal(t, []string{"M+5+5", "S"}, client.events)
	assert.Equal(t, []string{"Explore"}, client.stages)
	assert.True(t, client.done)
}

func TestRunForwardsToRobot(t *testing.T) {
	port := newFakePort()
	client := &fakeTWChart{}
	c := newController(testConfig(), port, client)
	defer c.Close()

	var out safeBuffer
	err := c.Run(context.Background(), strings.NewReader("M+5-5\r\nS\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "M+5-5\nS\n", port.written.String())
	assert.False(t, client.done, "only DONE finishes the run")

	scan, ir := c.Telemetry()
	assert.Nil(t, scan)
	assert.Nil(t, ir)

	_, err = port.robot.Write([]byte("[1ms] Initialized, tick 58µs\r\nS 20 0 55\r\nI 3 4\r\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ir := c.Telemetry()
		return ir != nil
	}, time.Second, 5*time.Millisecond)

	scan, ir = c.Telemetry()
	assert.Equal(t, &dreamster.Telemetry{Kind: dreamster.TelemetryScan, Values: []int{20, 0, 55}}, scan)
	assert.Equal(t, &dreamster.Telemetry{Kind: dreamster.TelemetryIR, Values: []int{3, 4}}, ir)
	assert.Equal(t, "[1ms] Initialized, tick 58µs\nS 20 0 55\nI 3 4\n", out.String())
}

func TestRunWithoutRecording(t *testing.T) {
	recorder := &skippedRecorder{}
	c := newController(testConfig(), nil, recorder)
	c.scan = &dreamster.Telemetry{Kind: dreamster.TelemetryScan, Values: []int{20, 0, 55}}

	var out safeBuffer
	in := strings.NewReader("#Calibrate\nS\n#Explore\nM+5+5\nDONE\n")
	err := c.Run(context.Background(), in, &out)
	require.NoError(t, err)

	// the last scan counts as an event
	assert.Equal(t, uint32(3), recorder.events.Load())
	assert.Equal(t, uint32(2), recorder.stages.Load())
	assert.Equal(t, "dry run: S\ndry run: M+5+5\nnot recorded: events=3 stages=2\n", out.String())
}

func TestRunDoneRecordsLastScan(t *testing.T) {
	client := &fakeTWChart{}
	c := newController(testConfig(), nil, client)
	c.scan = &dreamster.Telemetry{Kind: dreamster.TelemetryScan, Values: []int{20, 0, 55}}

	err := c.Run(context.Background(), strings.NewReader("DONE\n"), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"last S 20 0 55"}, client.events)
	assert.True(t, client.done)
}

func TestRunRecordingErrors(t *testing.T) {
	t.Run("CreateSession", func(t *testing.T) {
		client := &fakeTWChart{createErr: errors.New("unavailable")}
		c := newController(testConfig(), nil, client)

		err := c.Run(context.Background(), strings.NewReader("S\n"), io.Discard)
		assert.EqualError(t, err, "error creating session: unavailable")
	})

	t.Run("AddEventKeepsRunning", func(t *testing.T) {
		client := &fakeTWChart{eventErr: errors.New("unavailable")}
		c := newController(testConfig(), nil, client)

		var out safeBuffer
		err := c.Run(context.Background(), strings.NewReader("S\nX\n"), &out)
		require.NoError(t, err)
		assert.Equal(t, "dry run: S\nerror recording event: unavailable\ndry run: X\nerror recording event: unavailable\n", out.String())
	})

	t.Run("InvalidProbes", func(t *testing.T) {
		cfg := testConfig()
		cfg.ProbesInput = "9=Nowhere"
		c := newController(cfg, nil, &fakeTWChart{})

		err := c.Run(context.Background(), strings.NewReader(""), io.Discard)
		assert.EqualError(t, err, "probe position 9 has no ranging channel")
	})
}

func TestRunCancelled(t *testing.T) {
	client := &fakeTWChart{}
	c := newController(testConfig(), nil, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx, strings.NewReader("S\nX\n"), io.Discard)
	require.NoError(t, err)
	assert.Empty(t, client.events)
}

func TestNew(t *testing.T) {
	t.Run("InvalidBaudRate", func(t *testing.T) {
		_, err := New(Config{SerialPort: SerialPortNone, BaudRate: "fast"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid baud rate \"fast\"")
	})

	t.Run("DryRun", func(t *testing.T) {
		c, err := New(testConfig())
		require.NoError(t, err)
		assert.Nil(t, c.port)
		assert.IsType(t, &skippedRecorder{}, c.twchart)
		assert.NoError(t, c.Close())
	})

	t.Run("Recording", func(t *testing.T) {
		cfg := testConfig()
		cfg.TWChartAddr = "http://localhost:8080"
		c, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, &twchart.Client{}, c.twchart)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SERIAL_PORT", SerialPortNone)
	t.Setenv("TWCHART_ADDR", "http://localhost:8080")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{
		SerialPort:  SerialPortNone,
		BaudRate:    "9600",
		TWChartAddr: "http://localhost:8080",
		SessionName: "Dreamster Run",
	}, cfg)
}
