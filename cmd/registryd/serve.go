package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	gosundheit "github.com/AppsFlyer/go-sundheit"
	"github.com/AppsFlyer/go-sundheit/checks"
	gosundheithttp "github.com/AppsFlyer/go-sundheit/http"
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/bill-habermaas/grpc-registry/internal/config"
	"github.com/bill-habermaas/grpc-registry/internal/keyfile"
	"github.com/bill-habermaas/grpc-registry/internal/registry"
	"github.com/bill-habermaas/grpc-registry/internal/token"
	"github.com/bill-habermaas/grpc-registry/internal/transport"
)

func commandServe() *cobra.Command {
	return &cobra.Command{
		Use:     "serve [flags] [config file]",
		Short:   "Start the registry gRPC server",
		Example: "registryd serve setting.toml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return runServe(args[0])
		},
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger.Info("starting registryd", "server_address", cfg.ServerAddress)

	key, err := keyfile.Load(cfg.PublicKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}

	tokens, err := token.New(key)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	svc := registry.New(tokens, logger)

	promRegistry := prometheus.NewRegistry()
	if err := promRegistry.Register(prometheus.NewGoCollector()); err != nil {
		return fmt.Errorf("failed to register go runtime metrics: %w", err)
	}
	grpcMetrics := grpcprometheus.NewServerMetrics()
	if err := promRegistry.Register(grpcMetrics); err != nil {
		return fmt.Errorf("failed to register grpc server metrics: %w", err)
	}

	healthChecker := gosundheit.New()
	healthChecker.RegisterCheck(&gosundheit.Config{
		Check: &checks.CustomCheck{
			CheckName: "registry",
			CheckFunc: func(ctx context.Context) (interface{}, error) {
				if err := svc.HealthCheck(ctx); err != nil {
					return nil, fmt.Errorf("store unreachable: %w", err)
				}
				return "ok", nil
			},
		},
		ExecutionPeriod:  15 * time.Second,
		InitiallyPassing: true,
	})

	grpcSrv := grpc.NewServer(
		grpc.StreamInterceptor(grpcMetrics.StreamServerInterceptor()),
		grpc.UnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
	)
	transport.RegisterRegistryServer(grpcSrv, svc)
	grpcMetrics.InitializeMetrics(grpcSrv)

	var gr run.Group

	grpcListener, err := net.Listen("tcp", cfg.ServerAddress)
	if err != nil {
		return fmt.Errorf("listening (grpc) on %s: %w", cfg.ServerAddress, err)
	}
	gr.Add(func() error {
		logger.Info("listening (grpc)", "addr", cfg.ServerAddress)
		return grpcSrv.Serve(grpcListener)
	}, func(error) {
		logger.Debug("starting graceful shutdown (grpc)")
		grpcSrv.GracefulStop()
	})

	if cfg.Telemetry.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
		mux.Handle("/healthz", gosundheithttp.HandleHealthJSON(healthChecker))

		telemetrySrv := &http.Server{Addr: cfg.Telemetry.Addr, Handler: mux}
		defer telemetrySrv.Close()

		telemetryListener, err := net.Listen("tcp", cfg.Telemetry.Addr)
		if err != nil {
			return fmt.Errorf("listening (telemetry) on %s: %w", cfg.Telemetry.Addr, err)
		}
		gr.Add(func() error {
			logger.Info("listening (telemetry)", "addr", cfg.Telemetry.Addr)
			return telemetrySrv.Serve(telemetryListener)
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := telemetrySrv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown (telemetry)", "error", err)
			}
		})
	}

	gr.Add(run.SignalHandler(context.Background(), os.Interrupt, syscall.SIGTERM))
	if err := gr.Run(); err != nil {
		if _, ok := err.(run.SignalError); !ok {
			return fmt.Errorf("run groups: %w", err)
		}
		logger.Info("shutting down", "reason", err)
	}
	return nil
}
