package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/dreamster-robot/dreamster"
	"github.com/dreamster-robot/dreamster/sonar"
)

const (
	maxLogLines     = 200
	refreshInterval = 100 * time.Millisecond
	pollInterval    = 250 * time.Millisecond
)

// maxDistance is the longest distance a measurement can report
var maxDistance = float64(sonar.TicksToCentimeters(sonar.DefaultMeasureTimeout))

// RobotUI is a dashboard for driving the robot. It is an io.Writer for the robot's output, from which it
// shows the distances, infrared readings and logs.
type RobotUI struct {
	app fyne.App

	mtx       sync.Mutex
	partial   []byte
	distances [dreamster.NumChannels]int
	ir        [2]int
	logLines  []string
	changed   bool
}

func NewRobotUI(app fyne.App) *RobotUI {
	return &RobotUI{app: app}
}

// Write implements io.Writer. Incomplete lines are kept until the rest arrives
func (ui *RobotUI) Write(p []byte) (int, error) {
	ui.mtx.Lock()
	defer ui.mtx.Unlock()

	ui.partial = append(ui.partial, p...)
	for {
		i := bytes.IndexByte(ui.partial, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(ui.partial[:i]), "\r")
		ui.partial = ui.partial[i+1:]
		ui.handleLine(line)
	}

	return len(p), nil
}

func (ui *RobotUI) handleLine(line string) {
	if line == "" {
		return
	}

	ui.logLines = append(ui.logLines, line)
	if len(ui.logLines) > maxLogLines {
		ui.logLines = ui.logLines[len(ui.logLines)-maxLogLines:]
	}
	ui.changed = true

	t, err := dreamster.ParseTelemetry(line)
	if err != nil {
		return
	}
	switch t.Kind {
	case dreamster.TelemetryScan:
		copy(ui.distances[:], t.Values)
	case dreamster.TelemetryIR:
		copy(ui.ir[:], t.Values)
	}
}

type snapshot struct {
	distances [dreamster.NumChannels]int
	ir        [2]int
	logs      string
}

// snapshot returns the latest values and if anything changed since the previous call
func (ui *RobotUI) snapshot() (snapshot, bool) {
	ui.mtx.Lock()
	defer ui.mtx.Unlock()

	changed := ui.changed
	ui.changed = false
	return snapshot{
		distances: ui.distances,
		ir:        ui.ir,
		logs:      strings.Join(ui.logLines, "\n"),
	}, changed
}

func createSlider(labelText string, minValue, maxValue float64, onSet func(float64)) (*fyne.Container, *widget.Slider) {
	valueLabel := widget.NewLabel("0")

	slider := widget.NewSlider(minValue, maxValue)
	slider.Step = 1
	slider.OnChanged = func(value float64) {
		valueLabel.SetText(fmt.Sprintf("%.0f", value))
	}
	slider.OnChangeEnded = onSet

	return container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewLabel(labelText),
			valueLabel,
		),
		slider,
	), slider
}

func createDistanceBar(ch dreamster.Channel) (*fyne.Container, *widget.ProgressBar) {
	bar := widget.NewProgressBar()
	bar.Max = maxDistance
	bar.TextFormatter = func() string {
		if bar.Value == 0 {
			return "no echo"
		}
		return fmt.Sprintf("%.0f cm", bar.Value)
	}

	return container.NewBorder(nil, nil, widget.NewLabel(ch.String()), nil, bar), bar
}

// Show opens the dashboard. Commands are written to w. It quits the app when ctx is done
func (ui *RobotUI) Show(ctx context.Context, w io.Writer) {
	window := ui.app.NewWindow("Dreamster")

	runTimer := newTimer(false)
	lastEventTimer := newTimer(true)

	waitForStart := make(chan struct{})
	runTimer.Go(waitForStart)
	lastEventTimer.Go(waitForStart)

	c := &controllerWrapper{writer: w, lastEventTimer: lastEventTimer}

	currentState := stateNone
	var stateButton *widget.Button
	stateButton = widget.NewButton(currentState.next().String(), func() {
		currentState = currentState.next()

		if currentState == stateCalibrate {
			runTimer.Set(time.Now())
			close(waitForStart)
		}

		c.RunStateCommand(currentState)

		if currentState == stateDone {
			runTimer.Stop()
			lastEventTimer.Stop()
			stateButton.SetText(currentState.String())
			stateButton.Disable()
			return
		}
		stateButton.SetText(currentState.next().String())
	})

	leftContainer, leftSlider := createSlider("Left", -9, 9, c.SetLeft)
	rightContainer, rightSlider := createSlider("Right", -9, 9, c.SetRight)

	stopButton := widget.NewButton("Stop", func() {
		c.Stop()
		leftSlider.SetValue(0)
		rightSlider.SetValue(0)
	})

	var red, green, blue *widget.Slider
	showColor := func(float64) {
		c.Show(int(red.Value), int(green.Value), int(blue.Value))
	}
	redContainer, red := createSlider("Red", 0, 9, showColor)
	greenContainer, green := createSlider("Green", 0, 9, showColor)
	blueContainer, blue := createSlider("Blue", 0, 9, showColor)

	var polling atomic.Bool
	pollCheck := widget.NewCheck("Poll sensors", polling.Store)

	var bars [dreamster.NumChannels]*widget.ProgressBar
	barsContainer := container.NewVBox()
	for i := range bars {
		var barContainer *fyne.Container
		barContainer, bars[i] = createDistanceBar(dreamster.Channel(i))
		barsContainer.Add(barContainer)
	}

	irLabel := widget.NewLabel("IR: -")

	logContent := widget.NewLabel("")
	logScroll := container.NewVScroll(logContent)
	logScroll.SetMinSize(fyne.NewSize(300, 100))
	logAccordion := widget.NewAccordion(
		widget.NewAccordionItem("Logs", logScroll),
	)

	go func() {
		poll := time.NewTicker(pollInterval)
		defer poll.Stop()
		refresh := time.NewTicker(refreshInterval)
		defer refresh.Stop()

		for {
			select {
			case <-ctx.Done():
				fyne.Do(func() {
					ui.app.Quit()
				})
				return
			case <-poll.C:
				if polling.Load() {
					c.Poll()
				}
			case <-refresh.C:
				s, changed := ui.snapshot()
				if !changed {
					continue
				}
				fyne.Do(func() {
					for i, bar := range bars {
						bar.SetValue(float64(s.distances[i]))
					}
					irLabel.SetText(fmt.Sprintf("IR: %d / %d", s.ir[0], s.ir[1]))
					logContent.SetText(s.logs)
					logScroll.ScrollToBottom()
				})
			}
		}
	}()

	contentContainer := container.NewVBox(
		container.NewHBox(
			container.NewPadded(runTimer.text),
			layout.NewSpacer(),
			container.NewPadded(lastEventTimer.text),
		),
		stateButton,
		barsContainer,
		container.NewHBox(irLabel, layout.NewSpacer(), pollCheck),
		leftContainer,
		rightContainer,
		stopButton,
		widget.NewCard("LED", "", container.NewVBox(redContainer, greenContainer, blueContainer)),
		logAccordion,
	)

	window.SetContent(contentContainer)
	window.Resize(fyne.NewSize(400, 600))
	window.Show()
}
