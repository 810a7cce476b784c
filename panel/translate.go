// Package panel turns TotalConnect panel status into a local alarm control
// panel and issues arm/disarm commands against it.
package panel

import client "github.com/caarlos0/homekit-totalconnect"

// State is the local alarm control panel state.
type State uint8

const (
	StateUnknown State = iota
	StateDisarmed
	StateArmedHome
	StateArmedAway
	StateArmedNight
	StateArmedCustomBypass
	StateArming
	StateDisarming
	StateTriggered
)

func (s State) String() string {
	switch s {
	case StateDisarmed:
		return "disarmed"
	case StateArmedHome:
		return "armed_home"
	case StateArmedAway:
		return "armed_away"
	case StateArmedNight:
		return "armed_night"
	case StateArmedCustomBypass:
		return "armed_custom_bypass"
	case StateArming:
		return "arming"
	case StateDisarming:
		return "disarming"
	case StateTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// Armed reports whether s is one of the armed states.
func (s State) Armed() bool {
	switch s {
	case StateArmedHome, StateArmedAway, StateArmedNight, StateArmedCustomBypass:
		return true
	default:
		return false
	}
}

// Translate maps a polled status into the panel state and, when triggered,
// the human readable trigger source.
// It never fails: codes it does not know about read as StateUnknown.
func Translate(status client.DeviceStatus) (State, string) {
	if status.TriggerSource != client.TriggerNone {
		return StateTriggered, triggerLabel(status.TriggerSource)
	}

	switch status.ArmingState {
	case client.ArmingStateDisarmed,
		client.ArmingStateDisarmedBypass:
		return StateDisarmed, ""
	case client.ArmingStateArmedStay,
		client.ArmingStateArmedStayBypass,
		client.ArmingStateArmedStayInstant,
		client.ArmingStateArmedStayInstantBypass:
		return StateArmedHome, ""
	case client.ArmingStateArmedAway,
		client.ArmingStateArmedAwayBypass,
		client.ArmingStateArmedAwayInstant,
		client.ArmingStateArmedAwayInstantBypass:
		return StateArmedAway, ""
	case client.ArmingStateArmedStayNight:
		return StateArmedNight, ""
	case client.ArmingStateArmedCustomBypass:
		return StateArmedCustomBypass, ""
	case client.ArmingStateArming:
		return StateArming, ""
	case client.ArmingStateDisarming:
		return StateDisarming, ""
	default:
		return StateUnknown, ""
	}
}

func triggerLabel(src client.TriggerSource) string {
	switch src {
	case client.TriggerPoliceMedical:
		return "Police/Medical"
	case client.TriggerFireSmoke:
		return "Fire/Smoke"
	case client.TriggerCarbonMonoxide:
		return "Carbon Monoxide"
	default:
		return "Unknown"
	}
}
