package main

import (
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	client "github.com/caarlos0/homekit-totalconnect"
)

type AlarmSensors []*AlarmSensor

// Update refreshes every configured sensor. Zones missing from the status
// are left untouched.
func (sensors AlarmSensors) Update(status client.DeviceStatus) {
	for _, sensor := range sensors {
		zone, ok := status.Zone(sensor.Number)
		if !ok {
			log.Debug("zone not in status", "zone", sensor.Number)
			continue
		}
		sensor.Update(zone)
	}
}

type AlarmSensor struct {
	*accessory.A
	Number     int
	Kind       zoneKind
	Motion     *service.MotionSensor
	Contact    *service.ContactSensor
	LowBattery *characteristic.StatusLowBattery
	Tamper     *characteristic.StatusTampered
}

func (sensor *AlarmSensor) Open() bool {
	switch sensor.Kind {
	case kindContact:
		return sensor.Contact.ContactSensorState.Value() == 1
	case kindMotion:
		return sensor.Motion.MotionDetected.Value()
	}
	return false
}

func (sensor *AlarmSensor) Update(zone client.Zone) {
	name := sensor.Name()
	openGauge.WithLabelValues(name).Set(boolAs[float64](zone.IsOpen()))
	tamperGauge.WithLabelValues(name).Set(boolAs[float64](zone.Tampered()))
	bypassedGauge.WithLabelValues(name).Set(boolAs[float64](zone.Bypassed()))

	batlvl := boolAs[int](zone.LowBattery())
	if sensor.LowBattery.Value() != batlvl {
		log.Info("low battery", "zone", zone.ID, "status", zone.LowBattery())
		_ = sensor.LowBattery.SetValue(batlvl)
	}

	tamper := boolAs[int](zone.Tampered())
	if sensor.Tamper.Value() != tamper {
		log.Info("tamper", "zone", zone.ID, "status", zone.Tampered())
		_ = sensor.Tamper.SetValue(tamper)
	}

	switch sensor.Kind {
	case kindContact:
		current := boolAs[int](zone.IsOpen())
		if v := sensor.Contact.ContactSensorState.Value(); v == current {
			return
		}
		_ = sensor.Contact.ContactSensorState.SetValue(current)
		log.Info("contact", "zone", zone.ID, "status", current, "flags", zone.Status)
	case kindMotion:
		current := zone.IsOpen()
		if v := sensor.Motion.MotionDetected.Value(); v == current {
			return
		}
		sensor.Motion.MotionDetected.SetValue(current)
		log.Info("motion", "zone", zone.ID, "status", current, "flags", zone.Status)
	}
}

func newAlarmSensor(info accessory.Info, number int, kind zoneKind) *AlarmSensor {
	a := AlarmSensor{
		Number: number,
		Kind:   kind,
	}
	a.A = accessory.New(info, accessory.TypeSensor)

	a.LowBattery = characteristic.NewStatusLowBattery()
	a.Tamper = characteristic.NewStatusTampered()

	switch kind {
	case kindContact:
		a.Contact = service.NewContactSensor()
		a.Contact.AddC(a.Tamper.C)
		a.Contact.AddC(a.LowBattery.C)
		a.AddS(a.Contact.S)
	case kindMotion:
		a.Motion = service.NewMotionSensor()
		a.Motion.AddC(a.LowBattery.C)
		a.Motion.AddC(a.Tamper.C)
		a.AddS(a.Motion.S)
	}

	return &a
}
