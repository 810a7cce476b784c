package totalconnect

import (
	"fmt"
	"net/url"
	"strconv"
)

// ResultCode is the vendor's result for every request.
type ResultCode int

const (
	ResultSuccess             ResultCode = 0
	ResultArmSuccess          ResultCode = 4500
	ResultDisarmSuccess       ResultCode = 4500
	ResultInvalidSession      ResultCode = -102
	ResultFailedToConnect     ResultCode = -4104
	ResultUserCodeInvalid     ResultCode = -4106
	ResultUserCodeUnavailable ResultCode = -4114
	ResultCommandFailed       ResultCode = -4502
	ResultBadUserOrPassword   ResultCode = -50004
)

func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultArmSuccess:
		return "command accepted"
	case ResultInvalidSession:
		return "invalid session"
	case ResultFailedToConnect:
		return "failed to connect to panel"
	case ResultUserCodeInvalid:
		return "user code invalid"
	case ResultUserCodeUnavailable:
		return "user code unavailable"
	case ResultCommandFailed:
		return "command failed"
	case ResultBadUserOrPassword:
		return "bad user or password"
	default:
		return "result " + strconv.Itoa(int(c))
	}
}

// ResultError is a request the vendor answered with a failure code.
type ResultError struct {
	Code    ResultCode
	Message string
}

func (e *ResultError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// OutcomeFor maps the result code of an arm/disarm request into its outcome.
func OutcomeFor(code ResultCode) CommandOutcome {
	switch code {
	case ResultSuccess, ResultArmSuccess:
		return CommandOutcome{Accepted: true, Code: code}
	case ResultUserCodeInvalid, ResultUserCodeUnavailable:
		return CommandOutcome{Reason: RejectionInvalidUserCode, Code: code}
	default:
		return CommandOutcome{Reason: RejectionFailure, Code: code}
	}
}

// ArmType values accepted by ArmSecuritySystem.
const (
	armTypeAway  = 0
	armTypeStay  = 1
	armTypeNight = 4
)

func armType(a Action) (int, error) {
	switch a {
	case ActionArmAway:
		return armTypeAway, nil
	case ActionArmHome:
		return armTypeStay, nil
	case ActionArmNight:
		return armTypeNight, nil
	default:
		return 0, fmt.Errorf("invalid arm action: %q", a)
	}
}

type result struct {
	ResultCode ResultCode `json:"ResultCode"`
	ResultData string     `json:"ResultData"`
}

func (r result) err() error {
	if r.ResultCode >= 0 {
		return nil
	}
	return &ResultError{Code: r.ResultCode, Message: r.ResultData}
}

type loginResponse struct {
	result
	SessionID string `json:"SessionID"`
	Locations struct {
		LocationInfoBasic []struct {
			LocationID   int    `json:"LocationID"`
			LocationName string `json:"LocationName"`
			DeviceList   struct {
				DeviceInfoBasic []struct {
					DeviceID int `json:"DeviceID"`
				} `json:"DeviceInfoBasic"`
			} `json:"DeviceList"`
		} `json:"LocationInfoBasic"`
	} `json:"Locations"`
}

func (r loginResponse) locations() []Location {
	var locations []Location
	for _, info := range r.Locations.LocationInfoBasic {
		loc := Location{
			ID:   info.LocationID,
			Name: info.LocationName,
		}
		if devices := info.DeviceList.DeviceInfoBasic; len(devices) > 0 {
			loc.DeviceID = devices[0].DeviceID
		}
		locations = append(locations, loc)
	}
	return locations
}

type statusResponse struct {
	result
	PanelMetadataAndStatus panelStatus `json:"PanelMetadataAndStatus"`
}

type panelStatus struct {
	IsInACLoss      bool `json:"IsInACLoss"`
	IsInLowBattery  bool `json:"IsInLowBattery"`
	IsCoverTampered bool `json:"IsCoverTampered"`
	Partitions      struct {
		PartitionInfo []struct {
			PartitionID int         `json:"PartitionID"`
			ArmingState ArmingState `json:"ArmingState"`
		} `json:"PartitionInfo"`
	} `json:"Partitions"`
	Zones struct {
		ZoneInfo []struct {
			ZoneID          int        `json:"ZoneID"`
			ZoneDescription string     `json:"ZoneDescription"`
			ZoneStatus      ZoneStatus `json:"ZoneStatus"`
		} `json:"ZoneInfo"`
	} `json:"Zones"`
}

// statusFromPanel reads the first partition; a panel without partitions
// reports an unknown arming state.
func statusFromPanel(p panelStatus) DeviceStatus {
	status := DeviceStatus{
		ArmingState: ArmingStateUnknown,
		Troubles: Troubles{
			ACLoss:        p.IsInACLoss,
			LowBattery:    p.IsInLowBattery,
			CoverTampered: p.IsCoverTampered,
		},
	}
	if parts := p.Partitions.PartitionInfo; len(parts) > 0 {
		status.ArmingState = parts[0].ArmingState
	}
	status.TriggerSource = TriggerSourceFor(status.ArmingState)

	for _, z := range p.Zones.ZoneInfo {
		status.Zones = append(status.Zones, Zone{
			ID:          z.ZoneID,
			Description: z.ZoneDescription,
			Status:      z.ZoneStatus,
		})
	}
	return status
}

func makeForm(session string, kv ...string) url.Values {
	form := url.Values{}
	if session != "" {
		form.Set("SessionID", session)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		form.Set(kv[i], kv[i+1])
	}
	return form
}
