package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/weekplan/internal/app"
	"github.com/example/weekplan/internal/config"
	"github.com/example/weekplan/internal/endpoint"
	"github.com/example/weekplan/internal/logging"
	"github.com/example/weekplan/internal/observability"
	grpcTransport "github.com/example/weekplan/internal/transport/grpc"
	"github.com/example/weekplan/internal/web"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "weekplan-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	endpoints := endpoint.MakeEndpoints(a.Planner)
	grpcServer := grpcTransport.NewServer(endpoints, logger)
	webServer := web.NewServer(cfg.Server.HTTPAddr, endpoints, a.Metrics, logger)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.DebugAddr != "" {
		// Mutex and block profiles for the pprof handlers.
		runtime.SetMutexProfileFraction(1)
		runtime.SetBlockProfileRate(1)

		debug := newDebugServer(cfg.Server.DebugAddr, a.Metrics)
		g.Go(func() error {
			logger.Info("starting debug server", zap.String("addr", cfg.Server.DebugAddr))
			if err := debug.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("debug server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return debug.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		if err := webServer.Start(); err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcServer.Serve(cfg.Server.GRPCAddr); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return webServer.Shutdown(sctx)
	})

	return g.Wait()
}

func newDebugServer(addr string, metrics http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics)
	// pprof registers itself on the default mux.
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
