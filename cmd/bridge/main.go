package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"deckbridge/internal/adapter/gateway"
	"deckbridge/internal/adapter/input"
	"deckbridge/internal/adapter/launcher"
	"deckbridge/internal/adapter/link"
	"deckbridge/internal/adapter/metrics"
	"deckbridge/internal/domain"
	"deckbridge/internal/infra/config"
	"deckbridge/internal/infra/logger"
	"deckbridge/internal/infra/tracer"
	"deckbridge/internal/usecase/command"
	"deckbridge/internal/usecase/eventbus"
	"deckbridge/internal/usecase/session"
	"deckbridge/internal/usecase/telemetry"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`deckbridge - host bridge for the CYD deck macro pad

USAGE:
    deckbridge [FLAGS]

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./config.yaml)
    --transport NAME   Link transport: serial or ble
    --port PATH        Serial port (e.g. /dev/ttyUSB0, COM3)
    --layout CODE      Keyboard layout: us, de, fr

CONFIGURATION:
    Config file: ./config.yaml
    Environment: DECKBRIDGE_* variables override config
    Set DECKBRIDGE_CONFIG_KEY to decrypt enc: secrets

EXAMPLES:
    deckbridge                           # serial transport from config.yaml
    deckbridge --transport ble           # connect over BLE
    deckbridge --port /dev/ttyACM0 --layout de`)
}

// cliFlags holds optional CLI flags that override the config file.
type cliFlags struct {
	ConfigPath string
	Transport  string
	Port       string
	Layout     string
}

// parseFlags extracts --config, --transport, --port, --layout from os.Args.
func parseFlags() cliFlags {
	flags := cliFlags{ConfigPath: "config.yaml"}
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--config" && i+1 < len(os.Args):
			flags.ConfigPath = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--config="):
			flags.ConfigPath = strings.TrimPrefix(os.Args[i], "--config=")
		case os.Args[i] == "--transport" && i+1 < len(os.Args):
			flags.Transport = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--transport="):
			flags.Transport = strings.TrimPrefix(os.Args[i], "--transport=")
		case os.Args[i] == "--port" && i+1 < len(os.Args):
			flags.Port = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--port="):
			flags.Port = strings.TrimPrefix(os.Args[i], "--port=")
		case os.Args[i] == "--layout" && i+1 < len(os.Args):
			flags.Layout = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--layout="):
			flags.Layout = strings.TrimPrefix(os.Args[i], "--layout=")
		}
	}
	return flags
}

func run() error {
	// 1. Config
	flags := parseFlags()

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flags.Transport != "" {
		cfg.Link.Transport = flags.Transport
	}
	if flags.Port != "" {
		cfg.Link.Serial.Port = flags.Port
	}
	if flags.Layout != "" {
		cfg.Keyboard.Layout = flags.Layout
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Event bus
	bus := eventbus.New(log)
	defer bus.Close()

	// 4. Link adapter
	deviceLink, err := buildLink(cfg, log)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}

	// 5. Input injection + launching
	injector, err := input.NewUinputInjector()
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	defer injector.Close()
	launch := launcher.New(log)

	// 6. Command pipeline
	parser := command.NewParser(cfg.Keyboard.Layout, cfg.Keyboard.ReadySignals)
	executor := command.NewExecutor(injector, launch, cfg.Keyboard.SettleDelay.Std(), log)

	// 7. Telemetry
	var collector *telemetry.Collector
	if cfg.Telemetry.Enabled {
		sampler := metrics.NewSystemSampler(log)
		smoother := telemetry.NewSmoother(cfg.Telemetry.Alpha, cfg.Telemetry.MaxRatePerSec)
		collector = telemetry.NewCollector(sampler, smoother, cfg.Telemetry.DateLayout())
	}

	// 8. Session
	sess := session.New(deviceLink, parser, executor, collector, injector, bus, log, session.Options{
		ReconnectBackoff:  cfg.Link.ReconnectBackoff.Std(),
		TelemetryEnabled:  cfg.Telemetry.Enabled,
		TelemetryInterval: cfg.Telemetry.Interval.Std(),
	})

	// 9. Graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 10. Gateway
	if cfg.Gateway.Enabled {
		gw := gateway.NewServer(bus, gateway.NewStaticTokenAuth(cfg.Gateway.AuthToken), cfg.Gateway.Addr, log)
		gateway.RegisterBridgeHandlers(gw, sess, deviceLink)
		go func() {
			if err := gw.Start(ctx); err != nil {
				log.Error("gateway server error", "error", err)
			}
		}()
	}

	// 11. Start
	log.Info("deckbridge starting",
		"transport", cfg.Link.Transport,
		"link", deviceLink.Describe(),
		"layout", cfg.Keyboard.Layout,
		"telemetry", cfg.Telemetry.Enabled,
		"gateway", cfg.Gateway.Enabled,
	)

	if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("session: %w", err)
	}
	log.Info("deckbridge stopped")
	return nil
}

func buildLink(cfg *config.Config, log *slog.Logger) (domain.Link, error) {
	switch cfg.Link.Transport {
	case "serial":
		return link.NewSerialLink(cfg.Link.Serial, log), nil
	case "ble":
		return link.NewBLELink(cfg.Link.BLE, log), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Link.Transport)
	}
}
