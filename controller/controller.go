package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dreamster-robot/dreamster"
	"github.com/dreamster-robot/dreamster/twchart"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialPortNone runs the Controller without a robot. Commands are only echoed and recorded
const SerialPortNone = "none"

// DoneCommand finishes the run
const DoneCommand = "DONE"

var ErrNoUSBSerial = errors.New("no USB serial port found")

// Controller bridges an operator and the robot's serial command interface. Operator lines are sent to the
// robot and recorded, while the robot's output is copied back and its telemetry is kept.
type Controller struct {
	cfg     Config
	port    io.ReadWriteCloser
	twchart twchartClient
	now     func() time.Time

	mtx  sync.Mutex
	scan *dreamster.Telemetry
	ir   *dreamster.Telemetry
}

// NewFromEnv creates a Controller configured by environment variables
func NewFromEnv() (*Controller, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New opens the serial port and creates the TWChart client if configured
func New(cfg Config) (*Controller, error) {
	baudRate, err := strconv.Atoi(cfg.BaudRate)
	if err != nil {
		return nil, fmt.Errorf("invalid baud rate %q: %w", cfg.BaudRate, err)
	}

	if cfg.SerialPort == "" {
		ports, err := GetSerialPorts()
		if err != nil {
			return nil, fmt.Errorf("error finding serial port: %w", err)
		}
		cfg.SerialPort = ports[0]
	}

	var port io.ReadWriteCloser
	if cfg.SerialPort != SerialPortNone {
		port, err = serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, fmt.Errorf("error opening serial port %q: %w", cfg.SerialPort, err)
		}
	}

	var client twchartClient = &skippedRecorder{}
	if cfg.TWChartAddr != "" {
		client = twchart.NewClient(cfg.TWChartAddr)
	}

	return newController(cfg, port, client), nil
}

func newController(cfg Config, port io.ReadWriteCloser, client twchartClient) *Controller {
	return &Controller{
		cfg:     cfg,
		port:    port,
		twchart: client,
		now:     time.Now,
	}
}

// GetSerialPorts lists USB serial ports
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}

	return result, nil
}

// Run starts recording and forwards lines from in until DONE, the end of in or the context is cancelled.
// Lines starting with '#' name a new stage and are not sent to the robot. The robot's output is copied to out.
func (c *Controller) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	probes, err := twchart.ParseProbes(c.cfg.ProbesInput)
	if err != nil {
		return err
	}

	_, err = c.twchart.CreateSession(ctx, c.cfg.SessionName, probes)
	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}

	err = c.twchart.SetStartTime(ctx, c.now())
	if err != nil {
		return fmt.Errorf("error setting start time: %w", err)
	}

	var outMtx sync.Mutex
	out = &lockedWriter{w: out, mtx: &outMtx}

	if c.port != nil {
		go c.readRobot(out)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == DoneCommand:
			return c.done(ctx, out)
		case strings.HasPrefix(line, "#"):
			stage := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			err = c.twchart.AddStage(ctx, stage, c.now())
			if err != nil {
				fmt.Fprintf(out, "error recording stage: %v\n", err)
			}
		default:
			err = c.send(line, out)
			if err != nil {
				return err
			}
			err = c.twchart.AddEvent(ctx, line, c.now())
			if err != nil {
				fmt.Fprintf(out, "error recording event: %v\n", err)
			}
		}
	}

	return scanner.Err()
}

func (c *Controller) send(line string, out io.Writer) error {
	if c.port == nil {
		fmt.Fprintf(out, "dry run: %s\n", line)
		return nil
	}

	_, err := c.port.Write([]byte(line + "\n"))
	if err != nil {
		return fmt.Errorf("error writing to robot: %w", err)
	}
	return nil
}

func (c *Controller) done(ctx context.Context, out io.Writer) error {
	scan, _ := c.Telemetry()
	if scan != nil {
		err := c.twchart.AddEvent(ctx, "last "+scan.String(), c.now())
		if err != nil {
			fmt.Fprintf(out, "error recording event: %v\n", err)
		}
	}

	err := c.twchart.Done(ctx)
	if err != nil {
		return fmt.Errorf("error finishing session: %w", err)
	}

	if skipped, ok := c.twchart.(*skippedRecorder); ok {
		fmt.Fprintln(out, skipped.String())
	}
	return nil
}

// readRobot copies the robot's output until the port is closed
func (c *Controller) readRobot(out io.Writer) {
	scanner := bufio.NewScanner(c.port)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\x00")
		fmt.Fprintln(out, line)

		t, err := dreamster.ParseTelemetry(line)
		if err != nil {
			continue
		}

		c.mtx.Lock()
		switch t.Kind {
		case dreamster.TelemetryScan:
			c.scan = &t
		case dreamster.TelemetryIR:
			c.ir = &t
		}
		c.mtx.Unlock()
	}
}

// Telemetry returns the latest scan and infrared telemetry received from the robot, or nil if none arrived yet
func (c *Controller) Telemetry() (scan, ir *dreamster.Telemetry) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.scan, c.ir
}

// Close closes the serial port
func (c *Controller) Close() error {
	if c.port == nil {
		return nil
	}
	return c.port.Close()
}

// lockedWriter serializes writes from Run and the robot reader
type lockedWriter struct {
	w   io.Writer
	mtx *sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.w.Write(p)
}
