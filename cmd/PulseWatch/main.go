// Package main is the entry point of the PulseWatch service.
// It initializes the Kratos application with the HTTP trigger API, or
// executes a single check run in one-shot mode.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"PulseWatch/internal/biz"
	"PulseWatch/internal/conf"
	"PulseWatch/internal/data"
	"PulseWatch/internal/metrics"
	"PulseWatch/internal/service"
	zapLogger "PulseWatch/pkg/log"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "PulseWatch"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
	// flagonce runs one check batch and exits instead of serving.
	flagonce bool

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.BoolVar(&flagonce, "once", false, "run one check batch, print the result envelope, and exit")
}

func newApp(sc *conf.Schedule, logger log.Logger, hs *http.Server, health *service.HealthService) *kratos.App {
	opts := []kratos.Option{
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
		),
	}

	// The in-process scheduler starts after the transports are up and
	// drains with the app shutdown.
	if sc != nil && sc.Enabled {
		var c *cronRunner
		opts = append(opts,
			kratos.AfterStart(func(context.Context) error {
				c = StartCheckCron(sc, health, logger)
				return nil
			}),
			kratos.BeforeStop(func(ctx context.Context) error {
				if c != nil {
					c.Stop(ctx)
				}
				return nil
			}),
		)
	}

	return kratos.New(opts...)
}

func main() {
	flag.Parse()

	// Load configuration using Viper with environment variable support
	bc, err := conf.NewBootstrap(flagconf)
	if err != nil {
		// Use fallback logger before Zap is initialized
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize Zap logger from configuration
	zapLog, err := zapLogger.NewZapLogger(bc.Log)
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLog.Sync()

	// Create Kratos adapter for Zap logger
	logger := zapLogger.NewKratosAdapter(zapLog)

	// Add context fields to logger
	logger = log.With(logger,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	if flagonce {
		if err := runOnce(bc, logger); err != nil {
			log.NewHelper(logger).Errorw("msg", "one-shot run failed", "error", err.Error())
			os.Exit(1)
		}
		return
	}

	// Log startup configuration
	log.NewHelper(logger).Infow(
		"msg", "PulseWatch service starting",
		"services", len(bc.Checker.Services),
		"schedule.enabled", bc.Schedule.Enabled,
		"log.level", bc.Log.Level,
		"log.format", bc.Log.Format,
	)

	app, cleanup, err := wireApp(bc.Server, bc.Probe, bc.Checker, bc.Alert, bc.Schedule, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}

// runOnce reproduces the original one-invocation deployment: build the
// engine, execute a single run, print the invocation envelope to stdout.
// Self-instrumentation is pointless for a process this short-lived, so
// the engine gets a NopCollector.
func runOnce(bc *conf.Bootstrap, logger log.Logger) error {
	d, cleanup, err := data.NewData(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	collector := metrics.NopCollector{}
	prober := data.NewHTTPProber(bc.Probe, bc.Checker, logger)
	notifier := data.NewSlackNotifier(bc.Alert, d, logger)
	alertUC := biz.NewAlertUsecase(bc.Alert, notifier, collector, logger)
	checkerUC := biz.NewCheckerUsecase(bc.Checker, prober, alertUC, collector, logger)
	health := service.NewHealthService(checkerUC, logger)

	ctx := zapLogger.WithRunContext(context.Background(), zapLogger.GenerateRunID(), zapLogger.TriggerOnce)
	reply, err := health.RunChecks(ctx, zapLogger.TriggerOnce)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
