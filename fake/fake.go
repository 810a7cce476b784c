// Package fake provides a scripted Requester that answers requests from a
// fixed list of responses, in order.
package fake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	client "github.com/caarlos0/homekit-totalconnect"
	"gopkg.in/yaml.v3"
)

var (
	ErrExhausted  = errors.New("no scripted responses left")
	ErrUnexpected = errors.New("unexpected request")
)

// Step is one scripted response: either a status, a command result, or an error.
type Step struct {
	Status  *client.DeviceStatus
	Outcome *client.CommandOutcome
	Err     error
}

func Status(state client.ArmingState) Step {
	return StatusOf(client.DeviceStatus{ArmingState: state})
}

// StatusOf answers a status request, filling the trigger source from the
// arming state the way the service reports alarms.
func StatusOf(status client.DeviceStatus) Step {
	if status.TriggerSource == client.TriggerNone {
		status.TriggerSource = client.TriggerSourceFor(status.ArmingState)
	}
	return Step{Status: &status}
}

func Result(code client.ResultCode) Step {
	outcome := client.OutcomeFor(code)
	return Step{Outcome: &outcome}
}

func Fail(err error) Step {
	return Step{Err: err}
}

// Call is a request the Requester received.
type Call struct {
	Action   client.Action // empty for status requests
	Location int
	UserCode string
}

// Requester replays Steps in order.
type Requester struct {
	mu    sync.Mutex
	steps []Step
	calls []Call
}

var _ client.Requester = (*Requester)(nil)

func New(steps ...Step) *Requester {
	return &Requester{steps: steps}
}

func (r *Requester) Status(_ context.Context, locationID int) (client.DeviceStatus, error) {
	step, err := r.next(Call{Location: locationID})
	if err != nil {
		return client.DeviceStatus{}, err
	}
	if step.Status == nil {
		return client.DeviceStatus{}, fmt.Errorf("%w: got status, want %s", ErrUnexpected, step.kind())
	}
	return *step.Status, nil
}

func (r *Requester) Command(
	_ context.Context,
	action client.Action,
	locationID int,
	userCode string,
) (client.CommandOutcome, error) {
	step, err := r.next(Call{Action: action, Location: locationID, UserCode: userCode})
	if err != nil {
		return client.CommandOutcome{}, err
	}
	if step.Outcome == nil {
		return client.CommandOutcome{}, fmt.Errorf("%w: got %s, want %s", ErrUnexpected, action, step.kind())
	}
	return *step.Outcome, nil
}

// Calls returns the requests received so far.
func (r *Requester) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Remaining returns how many steps were not used yet.
func (r *Requester) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// Push appends steps to the script.
func (r *Requester) Push(steps ...Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, steps...)
}

func (r *Requester) next(call Call) (Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if len(r.steps) == 0 {
		return Step{}, ErrExhausted
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	if step.Err != nil {
		return Step{}, step.Err
	}
	return step, nil
}

func (s Step) kind() string {
	switch {
	case s.Status != nil:
		return "status"
	case s.Outcome != nil:
		return "command"
	default:
		return "error"
	}
}

type scriptZone struct {
	ID          int    `yaml:"id"`
	Description string `yaml:"description"`
	Status      int    `yaml:"status"`
}

type scriptStep struct {
	Status *struct {
		ArmingState   int          `yaml:"arming_state"`
		ACLoss        bool         `yaml:"ac_loss"`
		LowBattery    bool         `yaml:"low_battery"`
		CoverTampered bool         `yaml:"cover_tampered"`
		Zones         []scriptZone `yaml:"zones"`
	} `yaml:"status"`
	Result *int   `yaml:"result"`
	Error  string `yaml:"error"`
}

// Parse reads a YAML script such as:
//
//	- status: {arming_state: 10200}
//	- result: 4500
//	- status: {arming_state: 10307}
//	- error: connection reset by peer
func Parse(data []byte) (*Requester, error) {
	var script []scriptStep
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("could not parse script: %w", err)
	}

	steps := make([]Step, 0, len(script))
	for i, s := range script {
		switch {
		case s.Status != nil:
			status := client.DeviceStatus{
				ArmingState: client.ArmingState(s.Status.ArmingState),
				Troubles: client.Troubles{
					ACLoss:        s.Status.ACLoss,
					LowBattery:    s.Status.LowBattery,
					CoverTampered: s.Status.CoverTampered,
				},
			}
			for _, z := range s.Status.Zones {
				status.Zones = append(status.Zones, client.Zone{
					ID:          z.ID,
					Description: z.Description,
					Status:      client.ZoneStatus(z.Status),
				})
			}
			steps = append(steps, StatusOf(status))
		case s.Result != nil:
			steps = append(steps, Result(client.ResultCode(*s.Result)))
		case s.Error != "":
			steps = append(steps, Fail(errors.New(s.Error)))
		default:
			return nil, fmt.Errorf("could not parse script: step %d is empty", i+1)
		}
	}
	return New(steps...), nil
}

// Load reads a YAML script from path.
func Load(path string) (*Requester, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("could not read script: %w", err)
	}
	return Parse(data)
}
