package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/caarlos0/env/v11"
	client "github.com/caarlos0/homekit-totalconnect"
	"github.com/caarlos0/homekit-totalconnect/panel"
	"github.com/cenkalti/backoff/v4"
	logp "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "homekit",
})

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	manufacturer = "Resideo"
	model        = "TotalConnect"
	firstAlarmID = 2
)

func main() {
	log.Info(
		"homekit-totalconnect",
		"version", version,
		"commit", commit,
		"date", date,
		"info", strings.Join([]string{
			"Homekit bridge for TotalConnect alarm systems",
			"© Carlos Alexandro Becker",
			"https://becker.software",
		}, "\n"),
	)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(
			"could not parse env",
			"err",
			strings.TrimPrefix(strings.ReplaceAll(err.Error(), "; ", "\n"), "env: ")+"\n",
		)
	}
	if cfg.Debug {
		log.SetLevel(logp.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cli, err := login(ctx, cfg)
	if err != nil {
		log.Fatal("could not login", "err", err)
	}
	req := newRetryingRequester(cli)

	locations := cfg.bridgedLocations(cli.Locations())
	if len(locations) == 0 {
		log.Fatal("no locations to bridge", "available", cli.Locations(), "selected", cfg.Locations)
	}

	bridge := accessory.NewBridge(accessory.Info{
		Name:         "Alarm Bridge",
		Manufacturer: manufacturer,
		Firmware:     version,
	})

	var alarms []*SecuritySystem
	for i, loc := range locations {
		loc := loc
		p := panel.New(req, loc, panel.WithOnChange(func(from, to panel.State) {
			log.Info("state changed", "location", loc.Name, "from", from, "to", to)
		}))
		if err := p.Poll(ctx); err != nil {
			log.Fatal("could not init accessories", "location", loc.Name, "err", err)
		}

		alarm := NewSecuritySystem(accessory.Info{
			Name:         loc.Name,
			SerialNumber: strconv.Itoa(loc.ID),
			Manufacturer: manufacturer,
			Model:        model,
			Firmware:     version,
		}, cfg, p)
		alarm.Id = uint64(firstAlarmID + i)
		alarm.SyncTarget()
		alarm.Update()
		alarms = append(alarms, alarm)
	}

	// zone numbers are only unique within a location
	status := alarms[0].panel.Status()
	log.Info(
		"loading accessories",
		"location", alarms[0].panel.Name(),
		"zones", allZoneConfigs(cfg.allZones(status)).String(),
	)
	sensors := setupZones(cfg, status)

	go func() {
		tick := time.NewTicker(cfg.PollInterval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
			for i, alarm := range alarms {
				if err := alarm.panel.Poll(ctx); err != nil {
					log.Error("could not get status", "location", alarm.panel.Name(), "err", err)
					continue
				}
				alarm.Update()
				if i == 0 {
					sensors.Update(alarm.panel.Status())
				}
			}
		}
	}()

	fs := hap.NewFsStore("./db")

	server, err := hap.NewServer(fs, bridge.A, securityAccessories(sensors, alarms)...)
	if err != nil {
		log.Fatal("fail to create server", "error", err)
	}
	server.Addr = cfg.Address
	server.ServeMux().Handle("/metrics", promhttp.Handler())
	server.ServeMux().Handle("/status", statusHandler(alarms, sensors))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("stopping server")
		signal.Stop(c)
		cancel()
	}()

	log.Info("starting server", "addr", server.Addr)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to close server", "err", err)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := cli.Close(closeCtx); err != nil {
		log.Error("could not logout", "err", err)
	}
}

func login(ctx context.Context, cfg Config) (*client.Client, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Second * 5
	bo.MaxElapsedTime = time.Minute

	var cli *client.Client
	err := backoff.RetryNotify(func() error {
		requestCounter.WithLabelValues("login").Inc()
		c, err := client.New(ctx, client.Options{
			BaseURL:  cfg.BaseURL,
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err != nil {
			requestErrorCounter.WithLabelValues("login").Inc()
			if permanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		cli = c
		return nil
	}, backoff.WithContext(bo, ctx), func(err error, _ time.Duration) {
		log.Error("login failed", "err", err)
	})
	if err != nil {
		return nil, fmt.Errorf("could not login to totalconnect: %w", err)
	}
	log.Info("logged in", "locations", len(cli.Locations()))
	return cli, nil
}

func securityAccessories(sensors AlarmSensors, alarms []*SecuritySystem) []*accessory.A {
	var result []*accessory.A
	for _, a := range alarms {
		result = append(result, a.A)
	}
	for _, c := range sensors {
		result = append(result, c.A)
	}
	return result
}

func boolAs[T int | float64](b bool) T {
	if b {
		return 1
	}
	return 0
}

type PageItem struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Open       bool   `json:"open"`
	Tamper     bool   `json:"tamper"`
	LowBattery bool   `json:"low_battery"`
}

type PageLocation struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

type Page struct {
	Locations []PageLocation `json:"locations"`
	Zones     []PageItem     `json:"zones"`
}

func statusHandler(alarms []*SecuritySystem, sensors AlarmSensors) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var page Page
		for _, alarm := range alarms {
			page.Locations = append(page.Locations, PageLocation{
				State:      alarm.panel.State().String(),
				Attributes: alarm.panel.Attributes(),
			})
		}
		for _, zone := range sensors {
			page.Zones = append(page.Zones, PageItem{
				Number:     zone.Number,
				Name:       zone.Name(),
				Open:       zone.Open(),
				Tamper:     zone.Tamper.Value() == 1,
				LowBattery: zone.LowBattery.Value() == 1,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(page); err != nil {
			log.Error("could not write status page", "err", err)
		}
	})
}
