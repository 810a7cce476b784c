package totalconnect

import "strings"

// ZoneStatus is a bitmask of zone conditions.
type ZoneStatus int

const (
	ZoneNormal     ZoneStatus = 0
	ZoneBypassed   ZoneStatus = 1 << 0
	ZoneFaulted    ZoneStatus = 1 << 1
	ZoneTrouble    ZoneStatus = 1 << 3
	ZoneTampered   ZoneStatus = 1 << 4
	ZoneLowBattery ZoneStatus = 1 << 5
	ZoneTriggered  ZoneStatus = 1 << 8
)

func (s ZoneStatus) String() string {
	if s == ZoneNormal {
		return "normal"
	}
	var flags []string
	for _, f := range []struct {
		flag ZoneStatus
		name string
	}{
		{ZoneBypassed, "bypassed"},
		{ZoneFaulted, "faulted"},
		{ZoneTrouble, "trouble"},
		{ZoneTampered, "tampered"},
		{ZoneLowBattery, "low-battery"},
		{ZoneTriggered, "triggered"},
	} {
		if s&f.flag != 0 {
			flags = append(flags, f.name)
		}
	}
	if len(flags) == 0 {
		return "unknown"
	}
	return strings.Join(flags, ",")
}

type Zone struct {
	ID          int
	Description string
	Status      ZoneStatus
}

// Shows the sensor as open if it either is faulted or if it triggered an alarm.
func (z Zone) IsOpen() bool {
	return z.Status&(ZoneFaulted|ZoneTriggered) != 0
}

func (z Zone) Bypassed() bool   { return z.Status&ZoneBypassed != 0 }
func (z Zone) Tampered() bool   { return z.Status&ZoneTampered != 0 }
func (z Zone) LowBattery() bool { return z.Status&ZoneLowBattery != 0 }

// Zone returns the zone with the given id.
func (s DeviceStatus) Zone(id int) (Zone, bool) {
	for _, z := range s.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}
