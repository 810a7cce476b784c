package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	client "github.com/caarlos0/homekit-totalconnect"
	"github.com/caarlos0/homekit-totalconnect/panel"
)

const commandTimeout = time.Minute

type SecuritySystem struct {
	*accessory.A
	SecuritySystem *service.SecuritySystem
	LowBattery     *characteristic.StatusLowBattery
	Tampered       *characteristic.StatusTampered
	Fault          *characteristic.StatusFault

	cfg   Config
	panel *panel.Panel
}

func NewSecuritySystem(info accessory.Info, cfg Config, p *panel.Panel) *SecuritySystem {
	a := &SecuritySystem{
		cfg:   cfg,
		panel: p,
	}
	a.A = accessory.New(info, accessory.TypeSecuritySystem)

	a.SecuritySystem = service.NewSecuritySystem()
	a.AddS(a.SecuritySystem.S)

	a.Tampered = characteristic.NewStatusTampered()
	a.SecuritySystem.AddC(a.Tampered.C)

	a.LowBattery = characteristic.NewStatusLowBattery()
	a.SecuritySystem.AddC(a.LowBattery.C)

	// AC loss
	a.Fault = characteristic.NewStatusFault()
	a.SecuritySystem.AddC(a.Fault.C)

	a.SecuritySystem.SecuritySystemTargetState.SetValueRequestFunc = a.updateHandler

	return a
}

// currentState maps the panel state into the HomeKit current state.
// Transitional and unknown states have no HomeKit equivalent and return -1.
func currentState(s panel.State) int {
	switch s {
	case panel.StateDisarmed:
		return characteristic.SecuritySystemCurrentStateDisarmed
	case panel.StateArmedHome, panel.StateArmedCustomBypass:
		return characteristic.SecuritySystemCurrentStateStayArm
	case panel.StateArmedAway:
		return characteristic.SecuritySystemCurrentStateAwayArm
	case panel.StateArmedNight:
		return characteristic.SecuritySystemCurrentStateNightArm
	case panel.StateTriggered:
		return characteristic.SecuritySystemCurrentStateAlarmTriggered
	default:
		return -1
	}
}

// targetState is the HomeKit target state matching a settled panel state.
func targetState(s panel.State) int {
	switch s {
	case panel.StateDisarmed:
		return characteristic.SecuritySystemTargetStateDisarm
	case panel.StateArmedHome, panel.StateArmedCustomBypass:
		return characteristic.SecuritySystemTargetStateStayArm
	case panel.StateArmedAway:
		return characteristic.SecuritySystemTargetStateAwayArm
	case panel.StateArmedNight:
		return characteristic.SecuritySystemTargetStateNightArm
	default:
		return -1
	}
}

func actionFor(target int) (client.Action, bool) {
	switch target {
	case characteristic.SecuritySystemTargetStateStayArm:
		return client.ActionArmHome, true
	case characteristic.SecuritySystemTargetStateAwayArm:
		return client.ActionArmAway, true
	case characteristic.SecuritySystemTargetStateNightArm:
		return client.ActionArmNight, true
	case characteristic.SecuritySystemTargetStateDisarm:
		return client.ActionDisarm, true
	default:
		return "", false
	}
}

// SyncTarget sets the target state from the current panel state, otherwise
// HomeKit keeps showing "arming" when the bridge restarts.
func (a *SecuritySystem) SyncTarget() {
	if v := targetState(a.panel.State()); v >= 0 {
		err := a.SecuritySystem.SecuritySystemTargetState.SetValue(v)
		log.Info("set target state", "location", a.panel.UniqueID(), "state", v, "err", err)
	}
}

func (a *SecuritySystem) Update() {
	state := a.panel.State()
	status := a.panel.Status()
	name := a.panel.Name()

	armStateGauge.WithLabelValues(name).Set(float64(state))
	troubleGauge.WithLabelValues(name, "ac_loss").Set(boolAs[float64](status.Troubles.ACLoss))
	troubleGauge.WithLabelValues(name, "low_battery").Set(boolAs[float64](status.Troubles.LowBattery))
	troubleGauge.WithLabelValues(name, "cover_tampered").Set(boolAs[float64](status.Troubles.CoverTampered))

	if v := currentState(state); v >= 0 && a.SecuritySystem.SecuritySystemCurrentState.Value() != v {
		err := a.SecuritySystem.SecuritySystemCurrentState.SetValue(v)
		log.Info("set current state", "location", a.panel.UniqueID(), "state", state, "err", err)
	}

	if v := boolAs[int](status.Troubles.CoverTampered); a.Tampered.Value() != v {
		_ = a.Tampered.SetValue(v)
		log.Info("alarm status", "tamper", status.Troubles.CoverTampered)
	}

	if v := boolAs[int](status.Troubles.LowBattery); a.LowBattery.Value() != v {
		_ = a.LowBattery.SetValue(v)
		log.Info("alarm status", "low-battery", status.Troubles.LowBattery)
	}

	if v := boolAs[int](status.Troubles.ACLoss); a.Fault.Value() != v {
		_ = a.Fault.SetValue(v)
		log.Info("alarm status", "ac-loss", status.Troubles.ACLoss)
	}
}

func (a *SecuritySystem) updateHandler(
	v interface{},
	_ *http.Request,
) (response interface{}, code int) {
	target, ok := v.(int)
	if !ok {
		return nil, hap.JsonStatusInvalidValueInRequest
	}
	action, ok := actionFor(target)
	if !ok {
		return nil, hap.JsonStatusResourceDoesNotExist
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	log.Info(action.Verb(), "location", a.panel.UniqueID())
	err := a.panel.Execute(ctx, action, a.cfg.UserCode)
	defer a.Update()

	var cerr *panel.CommandError
	switch {
	case err == nil:
		commandCounter.WithLabelValues(string(action), "accepted").Inc()
		return nil, hap.JsonStatusSuccess
	case errors.As(err, &cerr):
		commandCounter.WithLabelValues(string(action), "rejected").Inc()
		log.Error(cerr.Error(), "reason", cerr.Reason, "code", cerr.Code)
		return nil, hap.JsonStatusInvalidValueInRequest
	default:
		commandCounter.WithLabelValues(string(action), "error").Inc()
		log.Error("could not "+action.Verb(), "err", err)
		return nil, hap.JsonStatusResourceBusy
	}
}
