package panel

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	client "github.com/caarlos0/homekit-totalconnect"
	logp "github.com/charmbracelet/log"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "panel",
})

// Attribute names.
const (
	AttrFriendlyName    = "friendly_name"
	AttrLocationName    = "location_name"
	AttrLocationID      = "location_id"
	AttrACLoss          = "ac_loss"
	AttrLowBattery      = "low_battery"
	AttrCoverTampered   = "cover_tampered"
	AttrTriggeredSource = "triggered_source"
)

// Panel is the alarm control panel of a single location.
type Panel struct {
	req      client.Requester
	location client.Location
	onChange func(from, to State)

	// op is held for a whole vendor round-trip, so a scheduled poll can't
	// commit its status after a newer one from a command.
	op sync.Mutex

	mu      sync.RWMutex
	status  client.DeviceStatus
	state   State
	trigger string
}

type Option func(*Panel)

// WithOnChange registers fn to be called after every state change.
func WithOnChange(fn func(from, to State)) Option {
	return func(p *Panel) {
		p.onChange = fn
	}
}

func New(req client.Requester, location client.Location, opts ...Option) *Panel {
	p := &Panel{
		req:      req,
		location: location,
		status:   client.DeviceStatus{ArmingState: client.ArmingStateUnknown},
		state:    StateUnknown,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Panel) Name() string { return p.location.Name }

// UniqueID is the location id.
func (p *Panel) UniqueID() string { return strconv.Itoa(p.location.ID) }

func (p *Panel) Location() client.Location { return p.location }

// Poll fetches the current status and updates the panel state.
func (p *Panel) Poll(ctx context.Context) error {
	p.op.Lock()
	defer p.op.Unlock()
	return p.refresh(ctx)
}

func (p *Panel) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Status returns the last polled status.
func (p *Panel) Status() client.DeviceStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Attributes returns the entity attributes. triggered_source is only set
// while the panel is triggered.
func (p *Panel) Attributes() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	attrs := map[string]any{
		AttrFriendlyName:  p.location.Name,
		AttrLocationName:  p.location.Name,
		AttrLocationID:    p.location.ID,
		AttrACLoss:        p.status.Troubles.ACLoss,
		AttrLowBattery:    p.status.Troubles.LowBattery,
		AttrCoverTampered: p.status.Troubles.CoverTampered,
	}
	if p.state == StateTriggered {
		attrs[AttrTriggeredSource] = p.trigger
	}
	return attrs
}

func (p *Panel) ArmHome(ctx context.Context, userCode string) error {
	return p.execute(ctx, client.ActionArmHome, userCode)
}

func (p *Panel) ArmAway(ctx context.Context, userCode string) error {
	return p.execute(ctx, client.ActionArmAway, userCode)
}

func (p *Panel) ArmNight(ctx context.Context, userCode string) error {
	return p.execute(ctx, client.ActionArmNight, userCode)
}

func (p *Panel) Disarm(ctx context.Context, userCode string) error {
	return p.execute(ctx, client.ActionDisarm, userCode)
}

// Execute runs the given action.
func (p *Panel) Execute(ctx context.Context, action client.Action, userCode string) error {
	return p.execute(ctx, action, userCode)
}

func (p *Panel) execute(ctx context.Context, action client.Action, userCode string) error {
	p.op.Lock()
	defer p.op.Unlock()

	log.Info("command", "action", action, "location", p.location.ID)
	outcome, err := p.req.Command(ctx, action, p.location.ID, userCode)
	if err != nil {
		return err
	}
	if !outcome.Accepted {
		return &CommandError{
			Action: action,
			Name:   p.location.Name,
			Reason: outcome.Reason,
			Code:   outcome.Code,
		}
	}

	// the command was accepted: a failed refresh leaves the previous state
	// in place until the next poll.
	if err := p.refresh(ctx); err != nil {
		log.Warn("could not refresh status after command", "action", action, "err", err)
	}
	return nil
}

func (p *Panel) refresh(ctx context.Context) error {
	status, err := p.req.Status(ctx, p.location.ID)
	if err != nil {
		return err
	}
	p.commit(status)
	return nil
}

func (p *Panel) commit(status client.DeviceStatus) {
	state, trigger := Translate(status)

	p.mu.Lock()
	from := p.state
	p.status = status
	p.state = state
	p.trigger = trigger
	p.mu.Unlock()

	if from == state {
		return
	}
	log.Info("state changed", "location", p.location.ID, "from", from, "to", state, "arming_state", status.ArmingState)
	if p.onChange != nil {
		p.onChange(from, state)
	}
}
