package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/rangeguard/parkaid-fw/internal/bootcfg"
	"github.com/rangeguard/parkaid-fw/internal/configstore"
	"github.com/rangeguard/parkaid-fw/internal/configstore/nvs"
	"github.com/rangeguard/parkaid-fw/internal/display"
	"github.com/rangeguard/parkaid-fw/internal/hal"
	"github.com/rangeguard/parkaid-fw/internal/ledtransport"
	"github.com/rangeguard/parkaid-fw/internal/logging"
	"github.com/rangeguard/parkaid-fw/internal/netif"
	"github.com/rangeguard/parkaid-fw/internal/orchestrator"
	"github.com/rangeguard/parkaid-fw/internal/ranging"
	"github.com/rangeguard/parkaid-fw/internal/timesource"
)

var Version = "0.1.0"

func main() {
	fmt.Printf("rangeguardd v%s\n", Version)

	cfg, err := bootcfg.Load(os.Getenv("RANGEGUARD_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootcfg: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logger.Level
	logCfg.LogDir = cfg.Logger.LogDir
	if err := logging.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	board := initHAL(logging.Get())
	orch := orchestrator.New(logging.Get())
	log := logging.WithSession(orch.SessionID())
	log.Info("booting", zap.String("board", board.Name), zap.String("profile", string(board.Profile)))

	store, err := openConfigStore(cfg)
	if err != nil {
		log.Fatal("configstore init failed", zap.Error(err))
	}
	defer store.Close()

	rangingCore, err := buildRangingCore(store, cfg)
	if err != nil {
		log.Fatal("ranging core init failed", zap.Error(err))
	}

	compositor, err := buildCompositor(store, rangingCore, cfg)
	if err != nil {
		log.Fatal("display compositor init failed", zap.Error(err))
	}

	link, err := buildNetif(board, cfg)
	if err != nil {
		log.Warn("netif unavailable, continuing without it", zap.Error(err))
	}

	orch.Register(orchestrator.Task{
		Name:     "ranging",
		Critical: true,
		Start:    rangingCore.Start,
		Stop:     rangingCore.Stop,
	})
	orch.Register(orchestrator.Task{
		Name:     "display",
		Critical: true,
		Start:    compositor.Start,
		Stop:     compositor.Stop,
	})
	if link != nil {
		orch.Register(orchestrator.Task{
			Name:     "netif",
			Critical: false,
			Start:    link.Start,
			Stop:     link.Stop,
		})
	}

	if err := orch.Boot(); err != nil {
		log.Fatal("boot failed", zap.Error(err))
	}
	orch.Supervise()

	log.Info("running")
	waitForShutdown()

	log.Info("shutting down")
	if err := orch.Shutdown(); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

func initHAL(log *zap.Logger) hal.BoardInfo {
	info := hal.DetectBoard()
	var h hal.HAL
	var err error
	if runtime.GOOS == "linux" && info.Profile != hal.ProfileMock {
		h, err = hal.NewLinuxHAL(info)
		if err != nil {
			log.Warn("falling back to mock HAL", zap.Error(err))
			h = hal.NewMockHAL()
		}
	} else {
		h = hal.NewMockHAL()
	}
	hal.SetGlobalHAL(h)
	return h.Info()
}

func openConfigStore(cfg *bootcfg.Config) (*configstore.Store, error) {
	backing, err := nvs.OpenSQLiteNVS(cfg.NVS.Path)
	if err != nil {
		return nil, err
	}
	return configstore.Open(backing)
}

func buildRangingCore(store *configstore.Store, cfg *bootcfg.Config) (*ranging.Core, error) {
	h, err := hal.GetGlobalHAL()
	if err != nil {
		return nil, err
	}

	period, _ := store.GetU16(configstore.MeasurementIntervalMs)
	timeout, _ := store.GetU16(configstore.SensorTimeoutMs)
	smoothing, _ := store.GetU16(configstore.SmoothingFactor)

	sensorCfg := ranging.SensorConfig{
		TriggerPin:    cfg.GPIO.TriggerPin,
		EchoPin:       cfg.GPIO.EchoPin,
		PeriodMs:      int(period),
		EchoTimeoutMs: int(timeout),
		TempTenthsC:   200,
		Smoothing:     int(smoothing),
	}

	core := ranging.NewCore(h.GPIO(), timesource.Default, sensorCfg)
	if err := core.Init(); err != nil {
		return nil, err
	}
	return core, nil
}

func buildCompositor(store *configstore.Store, core *ranging.Core, cfg *bootcfg.Config) (*display.Compositor, error) {
	ledCount, _ := store.GetU16(configstore.LEDCount)
	brightness, _ := store.GetU16(configstore.LEDBrightness)
	minMM, _ := store.GetU16(configstore.DistanceMinMM)
	maxMM, _ := store.GetU16(configstore.DistanceMaxMM)

	var transport ledtransport.Transport
	if runtime.GOOS == "linux" {
		strip, err := ledtransport.OpenRpioStrip(cfg.GPIO.LEDPin, int(ledCount), uint8(brightness))
		if err != nil {
			transport = ledtransport.NewMockTransport(int(ledCount))
		} else {
			transport = strip
		}
	} else {
		transport = ledtransport.NewMockTransport(int(ledCount))
	}

	rangeCfg := display.RangeConfig{MinMM: minMM, MaxMM: maxMM}
	return display.NewCompositor(transport, core, rangeCfg, timesource.Default), nil
}

func buildNetif(board hal.BoardInfo, cfg *bootcfg.Config) (*netif.SerialLink, error) {
	if board.Profile == hal.ProfileMock || board.Profile == hal.ProfileMinimal {
		return nil, fmt.Errorf("%s board: serial netif disabled", board.Profile)
	}
	h, err := hal.GetGlobalHAL()
	if err != nil {
		return nil, err
	}
	if err := h.Serial().Open(cfg.Serial.Port, cfg.Serial.BaudRate); err != nil {
		return nil, err
	}
	return netif.NewSerialLink(h.Serial(), netif.DefaultLinkConfig()), nil
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
