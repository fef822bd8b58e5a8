package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/action"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/codec"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/config"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/logging"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/mission"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/replay"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim/kinematic"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/store"
)

// #region main
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var overrides config.Config

	cmd := &cobra.Command{
		Use:          "controller",
		Short:        "Run the fill-and-pour mission against the simulator or the kinematic world",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("backend") {
				cfg.Backend = overrides.Backend
			}
			if flags.Changed("scene") {
				cfg.ScenePath = overrides.ScenePath
			}
			if flags.Changed("db") {
				cfg.DBPath = overrides.DBPath
			}
			if flags.Changed("sim-addr") {
				cfg.SimAddr = overrides.SimAddr
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = overrides.MetricsAddr
			}
			if flags.Changed("trace") {
				cfg.Trace = overrides.Trace
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "path to a YAML config file")
	f.StringVar(&overrides.Backend, "backend", config.BackendKinematic, "simulation backend: kinematic or grpc")
	f.StringVar(&overrides.ScenePath, "scene", "", "path to a JSON scene description")
	f.StringVar(&overrides.DBPath, "db", "", "path to the episode database")
	f.StringVar(&overrides.SimAddr, "sim-addr", "", "simulator gRPC address")
	f.StringVar(&overrides.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&overrides.Trace, "trace", false, "print action spans to stdout")
	return cmd
}

// #endregion main

// #region run
func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger, err := logging.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	if cfg.ScenePath == "" {
		return errors.New("no scene given (--scene or scene_path)")
	}
	spec, err := replay.LoadScene(cfg.ScenePath)
	if err != nil {
		return err
	}
	scene, err := spec.Scene()
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	backend, closeBackend, err := openBackend(cfg, spec)
	if err != nil {
		return err
	}
	defer closeBackend()

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, logger)
		defer srv.Shutdown(context.Background())
	}
	if cfg.Trace {
		shutdown, err := installTracer()
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	episodeID, err := st.StartEpisode(spec)
	if err != nil {
		return err
	}
	logger.Info("episode started", "episode", episodeID, "backend", cfg.Backend, "db", cfg.DBPath)

	session := action.NewSession(backend, cfg.Action,
		action.WithLogger(logger),
		action.WithRecorder(st.Recorder(episodeID)),
		action.WithGoalConfig(cfg.Goal),
	)
	if err := session.InitScene(ctx, scene); err != nil {
		return err
	}

	rep, runErr := mission.NewRunner(session, cfg.Mission, logger).Run(ctx)
	if err := st.FinishEpisode(episodeID, session.Cost(), session.IsDone()); err != nil {
		logger.Error("finish episode", "episode", episodeID, "error", err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("episode %s: delivered=%d skipped=%d pours=%d cost=%d done=%v\n",
		episodeID, len(rep.Delivered), len(rep.Skipped), rep.Pours, rep.Cost, rep.Done)
	return nil
}

func openBackend(cfg config.Config, spec *replay.SceneSpec) (sim.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendGRPC:
		client, err := codec.NewSimClient(cfg.SimAddr, codec.CallTimeout(cfg.RPCTimeout))
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	default:
		world, err := spec.World(kinematic.DefaultConfig())
		if err != nil {
			return nil, nil, err
		}
		return world, func() {}, nil
	}
}

// #endregion run

// #region telemetry
func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "addr", addr, "error", err)
		}
	}()
	return srv
}

func installTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// #endregion telemetry
