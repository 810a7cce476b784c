package main

import (
	"fmt"
	"strings"
	"time"

	client "github.com/caarlos0/homekit-totalconnect"
	"golang.org/x/exp/slices"
)

type Config struct {
	Username     string        `env:"USERNAME,notEmpty"`
	Password     string        `env:"PASSWORD,notEmpty"`
	UserCode     string        `env:"USER_CODE"`
	Locations    []int         `env:"LOCATIONS"`
	MotionZones  []int         `env:"MOTION"`
	ContactZones []int         `env:"CONTACT"`
	ZoneNames    []string      `env:"ZONE_NAMES"`
	PollInterval time.Duration `env:"POLL_INTERVAL"      envDefault:"10s"`
	BaseURL      string        `env:"BASE_URL"`
	Address      string        `env:"LISTEN"             envDefault:":9009"`
	Debug        bool          `env:"DEBUG"`
}

type zoneKind uint8

const (
	kindMotion zoneKind = iota + 1
	kindContact
)

func (z zoneKind) String() string {
	switch z {
	case kindMotion:
		return "motion"
	default:
		return "contact"
	}
}

type zoneConfig struct {
	number int
	name   string
	kind   zoneKind
}

// zoneName prefers the configured name, then the name the panel reports.
func (c Config) zoneName(n int, description string) string {
	names := c.ZoneNames
	if len(names) > n-1 {
		if n := names[n-1]; n != "" {
			return n
		}
	}
	if description != "" {
		return description
	}
	return fmt.Sprintf("Zone %d", n)
}

type allZoneConfigs []zoneConfig

func (a allZoneConfigs) String() string {
	var zones []string
	for _, zone := range a {
		zones = append(
			zones,
			fmt.Sprintf("zone %d: %q (%s)", zone.number, zone.name, zone.kind.String()),
		)
	}
	return strings.Join(zones, "\n")
}

func (c Config) allZones(status client.DeviceStatus) []zoneConfig {
	var zones []zoneConfig
	add := func(numbers []int, kind zoneKind) {
		for _, z := range numbers {
			zone, _ := status.Zone(z)
			zones = append(zones, zoneConfig{
				number: z,
				name:   c.zoneName(z, zone.Description),
				kind:   kind,
			})
		}
	}
	add(c.MotionZones, kindMotion)
	add(c.ContactZones, kindContact)
	slices.SortFunc(zones, func(a, b zoneConfig) int {
		if a.number > b.number {
			return 1
		}
		return -1
	})
	return zones
}

// bridgedLocations returns the account locations to bridge, ordered by id.
// All of them are bridged unless LOCATIONS is set.
func (c Config) bridgedLocations(all []client.Location) []client.Location {
	var result []client.Location
	for _, loc := range all {
		if len(c.Locations) > 0 && !slices.Contains(c.Locations, loc.ID) {
			continue
		}
		result = append(result, loc)
	}
	slices.SortFunc(result, func(a, b client.Location) int {
		return a.ID - b.ID
	})
	return result
}
