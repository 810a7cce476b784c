package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homekit_totalconnect"

var armStateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "alarm",
	Name:      "state",
	Help:      "Current panel state of each location",
}, []string{"location"})

var troubleGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "alarm",
	Name:      "trouble",
	Help:      "Location troubles, 1 when active",
}, []string{"location", "trouble"})

var tamperGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "zone",
	Name:      "tamper",
	Help:      "",
}, []string{"name"})

var openGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "zone",
	Name:      "open",
	Help:      "",
}, []string{"name"})

var bypassedGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "zone",
	Name:      "bypassed",
	Help:      "",
}, []string{"name"})

var requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "client",
	Name:      "requests_total",
	Help:      "",
}, []string{"kind"})

var requestErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "client",
	Name:      "request_errors_total",
	Help:      "",
}, []string{"kind"})

var commandCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "alarm",
	Name:      "commands_total",
	Help:      "Commands sent to the panel by action and result",
}, []string{"action", "result"})
