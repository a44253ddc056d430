package twchart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/calvinmclean/babyapi"
	"github.com/calvinmclean/twchart"
	"github.com/dreamster-robot/dreamster"
)

// Probes names the recorded channels of a run
type Probes []twchart.Probe

// Client records robot runs as TWChart sessions
type Client struct {
	client    *babyapi.Client[*session]
	sessionID string
}

type session struct {
	// include NilResource so we don't implement Render/Bind which are not needed
	*babyapi.NilResource
	twchart.Session
}

func (s session) GetID() string {
	return s.Session.GetID()
}

func NewClient(addr string) *Client {
	client := babyapi.NewClient[*session](addr, "/sessions")
	return &Client{client: client}
}

// CreateSession starts recording a run. Events, stages and Done apply to this session
func (c *Client) CreateSession(ctx context.Context, runName string, probes Probes) (string, error) {
	resp, err := c.client.Post(ctx, &session{
		Session: twchart.Session{
			Name:   runName,
			Date:   time.Now(),
			Probes: []twchart.Probe(probes),
		},
	})
	if err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	c.sessionID = resp.Data.GetID()

	return c.sessionID, nil
}

func (c *Client) SetStartTime(ctx context.Context, startTime time.Time) error {
	_, err := c.client.Patch(ctx, c.sessionID, &session{Session: twchart.Session{
		StartTime: startTime,
	}})
	return err
}

// AddEvent records an operator command
func (c *Client) AddEvent(ctx context.Context, note string, now time.Time) error {
	return c.post(ctx, "/add-event", twchart.Event{Note: note, Time: now})
}

// AddStage records the start of a run stage, like "Explore"
func (c *Client) AddStage(ctx context.Context, name string, now time.Time) error {
	return c.post(ctx, "/add-stage", twchart.Stage{Name: name, Start: now})
}

func (c *Client) Done(ctx context.Context) error {
	return c.post(ctx, "/done", map[string]any{"time": time.Now()})
}

func (c *Client) post(ctx context.Context, action string, body any) error {
	if c.sessionID == "" {
		return fmt.Errorf("no session for %s", strings.TrimPrefix(action, "/"))
	}

	url, err := c.client.URL(c.sessionID)
	if err != nil {
		return fmt.Errorf("error creating url: %w", err)
	}

	return c.makeRequest(ctx, url+action, body)
}

func (c *Client) makeRequest(ctx context.Context, url string, body any) error {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding body: %w", err)
		}

		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := c.client.MakeGenericRequest(req, nil)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	if resp.Response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d, response: %v", resp.Response.StatusCode, resp.Body)
	}

	return nil
}

// ChannelProbes names one probe per ranging channel: "Sonar A" at position 1 and so on
func ChannelProbes() Probes {
	probes := make(Probes, 0, dreamster.NumChannels)
	for ch := dreamster.ChannelA; int(ch) < dreamster.NumChannels; ch++ {
		probes = append(probes, twchart.Probe{
			Name:     "Sonar " + ch.String(),
			Position: twchart.ProbePosition(ch + 1),
		})
	}
	return probes
}

// ParseProbes parses a string in the format "1=Name,2=Name,..." into twchart.Probes. Positions map
// to ranging channels, so they can't be larger than the number of channels. An empty input uses
// ChannelProbes.
func ParseProbes(input string) (Probes, error) {
	if strings.TrimSpace(input) == "" {
		return ChannelProbes(), nil
	}

	var probes Probes
	for entry := range strings.SplitSeq(input, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid probe entry: %q", entry)
		}
		posStr := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])

		var pos twchart.ProbePosition
		_, err := fmt.Sscanf(posStr, "%d", &pos)
		if err != nil || pos <= twchart.ProbePositionNone {
			return nil, fmt.Errorf("invalid probe position: %q", posStr)
		}
		if int(pos) > dreamster.NumChannels {
			return nil, fmt.Errorf("probe position %d has no ranging channel", pos)
		}
		probes = append(probes, twchart.Probe{Name: name, Position: pos})
	}
	return probes, nil
}
