package main

import (
	"github.com/brutella/hap/accessory"
	client "github.com/caarlos0/homekit-totalconnect"
)

const firstSensorID = 100

func setupZones(cfg Config, status client.DeviceStatus) AlarmSensors {
	var sensors AlarmSensors
	for i, zone := range cfg.allZones(status) {
		a := newAlarmSensor(accessory.Info{
			Name:         zone.name,
			Manufacturer: manufacturer,
		}, zone.number, zone.kind)
		a.Id = uint64(firstSensorID + i)

		if z, ok := status.Zone(zone.number); ok {
			a.Update(z)
		} else {
			log.Warn("configured zone not reported by the panel", "zone", zone.number)
		}
		sensors = append(sensors, a)
	}
	return sensors
}
