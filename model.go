package totalconnect

import "context"

// ArmingState is the arming state code reported by the panel.
type ArmingState int

const (
	ArmingStateUnknown                ArmingState = 0
	ArmingStateDisarmed               ArmingState = 10200
	ArmingStateArmedAway              ArmingState = 10201
	ArmingStateArmedAwayBypass        ArmingState = 10202
	ArmingStateArmedStay              ArmingState = 10203
	ArmingStateArmedStayBypass        ArmingState = 10204
	ArmingStateArmedAwayInstant       ArmingState = 10205
	ArmingStateArmedAwayInstantBypass ArmingState = 10206
	ArmingStateAlarming               ArmingState = 10207
	ArmingStateArmedStayInstant       ArmingState = 10209
	ArmingStateArmedStayInstantBypass ArmingState = 10210
	ArmingStateDisarmedBypass         ArmingState = 10211
	ArmingStateAlarmingFireSmoke      ArmingState = 10212
	ArmingStateAlarmingCarbonMonoxide ArmingState = 10213
	ArmingStateArmedStayNight         ArmingState = 10218
	ArmingStateArmedCustomBypass      ArmingState = 10223
	ArmingStateArming                 ArmingState = 10307
	ArmingStateDisarming              ArmingState = 10308
)

func (s ArmingState) String() string {
	switch s {
	case ArmingStateDisarmed:
		return "Disarmed"
	case ArmingStateDisarmedBypass:
		return "Disarmed (bypass)"
	case ArmingStateArmedAway:
		return "Armed away"
	case ArmingStateArmedAwayBypass:
		return "Armed away (bypass)"
	case ArmingStateArmedAwayInstant:
		return "Armed away (instant)"
	case ArmingStateArmedAwayInstantBypass:
		return "Armed away (instant, bypass)"
	case ArmingStateArmedStay:
		return "Armed stay"
	case ArmingStateArmedStayBypass:
		return "Armed stay (bypass)"
	case ArmingStateArmedStayInstant:
		return "Armed stay (instant)"
	case ArmingStateArmedStayInstantBypass:
		return "Armed stay (instant, bypass)"
	case ArmingStateArmedStayNight:
		return "Armed stay (night)"
	case ArmingStateArmedCustomBypass:
		return "Armed custom bypass"
	case ArmingStateArming:
		return "Arming"
	case ArmingStateDisarming:
		return "Disarming"
	case ArmingStateAlarming:
		return "Alarming"
	case ArmingStateAlarmingFireSmoke:
		return "Alarming (fire/smoke)"
	case ArmingStateAlarmingCarbonMonoxide:
		return "Alarming (carbon monoxide)"
	default:
		return "Unknown"
	}
}

// TriggerSource is what caused the panel to go into alarm.
// The zero value means the panel is not alarming.
type TriggerSource int

const (
	TriggerNone           TriggerSource = 0
	TriggerPoliceMedical  TriggerSource = TriggerSource(ArmingStateAlarming)
	TriggerFireSmoke      TriggerSource = TriggerSource(ArmingStateAlarmingFireSmoke)
	TriggerCarbonMonoxide TriggerSource = TriggerSource(ArmingStateAlarmingCarbonMonoxide)
)

// TriggerSourceFor returns the trigger source encoded in an alarming state.
func TriggerSourceFor(s ArmingState) TriggerSource {
	switch s {
	case ArmingStateAlarming,
		ArmingStateAlarmingFireSmoke,
		ArmingStateAlarmingCarbonMonoxide:
		return TriggerSource(s)
	default:
		return TriggerNone
	}
}

// Troubles are location-wide problems reported alongside the arming state.
type Troubles struct {
	ACLoss        bool
	LowBattery    bool
	CoverTampered bool
}

// DeviceStatus is a snapshot of a single poll.
type DeviceStatus struct {
	ArmingState   ArmingState
	TriggerSource TriggerSource
	Troubles      Troubles
	Zones         []Zone
}

// Triggered reports whether the panel reported an alarm.
func (s DeviceStatus) Triggered() bool {
	return s.TriggerSource != TriggerNone
}

type Location struct {
	ID       int
	Name     string
	DeviceID int
}

// Action is an arm or disarm request.
type Action string

const (
	ActionArmHome  Action = "arm_home"
	ActionArmAway  Action = "arm_away"
	ActionArmNight Action = "arm_night"
	ActionDisarm   Action = "disarm"
)

// Verb returns the action as it reads in a sentence, e.g. "arm home".
func (a Action) Verb() string {
	switch a {
	case ActionArmHome:
		return "arm home"
	case ActionArmAway:
		return "arm away"
	case ActionArmNight:
		return "arm night"
	case ActionDisarm:
		return "disarm"
	default:
		return string(a)
	}
}

// Rejection is why the vendor declined a command.
type Rejection uint8

const (
	RejectionNone Rejection = iota
	RejectionFailure
	RejectionInvalidUserCode
)

func (r Rejection) String() string {
	switch r {
	case RejectionFailure:
		return "failure"
	case RejectionInvalidUserCode:
		return "invalid user code"
	default:
		return "none"
	}
}

// CommandOutcome is the immediate acknowledgement of an arm/disarm request.
type CommandOutcome struct {
	Accepted bool
	Reason   Rejection
	Code     ResultCode
}

// Requester talks to the monitoring service.
// Implementations must be safe for concurrent use.
type Requester interface {
	Status(ctx context.Context, locationID int) (DeviceStatus, error)
	Command(ctx context.Context, action Action, locationID int, userCode string) (CommandOutcome, error)
}
