// Command biddocsd serves document parsing, batch preparation and the
// standards registry over gRPC, and optionally registers files dropped into
// an inbox directory.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/bid-docs/internal/app"
	"github.com/joseph-ayodele/bid-docs/internal/async"
	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
	"github.com/joseph-ayodele/bid-docs/internal/server"
	"github.com/joseph-ayodele/bid-docs/internal/standards"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("biddocsd exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	parser := app.NewParser(cfg, logger)
	proc := app.NewProcessor(cfg, parser, logger)

	registry, db, err := app.OpenRegistry(ctx, cfg, parser, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	queue := async.NewQueue(func(ctx context.Context, job async.Job) error {
		std, err := registry.Add(ctx, job.Path, "")
		if errors.Is(err, common.ErrDuplicate) {
			logger.Info("inbox file already registered", "path", job.Path, "reason", err)
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("inbox file registered", "path", job.Path, "code", std.Code, "id", std.ID)
		return nil
	}, logger, async.WithWorkers(cfg.Standards.Workers))

	if cfg.Standards.InboxDir != "" {
		if err := os.MkdirAll(cfg.Standards.InboxDir, 0o755); err != nil {
			return err
		}
		events, errs, err := standards.Watch(ctx, standards.WatchConfig{
			Roots:       []string{cfg.Standards.InboxDir},
			InitialScan: true,
			Debounce:    cfg.Standards.Debounce,
		}, logger)
		if err != nil {
			return err
		}
		go standards.RunInbox(ctx, events, errs, func(ctx context.Context, path string) error {
			return queue.Enqueue(ctx, async.Job{Path: path})
		}, logger)
		logger.Info("watching standards inbox", "dir", cfg.Standards.InboxDir)
	}

	svc := server.NewIngestService(parser, proc, registry, pipeline.BudgetFromConfig(cfg), logger)
	grpcServer, hs := server.NewGRPCServer(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC serving", "addr", lis.Addr().String())
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
	}

	logger.Info("shutting down")
	hs.Shutdown()
	stopGracefully(grpcServer, cfg.Server.ShutdownTimeout, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	return nil
}

// stopGracefully lets in-flight calls finish, then forces the stop.
func stopGracefully(s *grpc.Server, timeout time.Duration, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("graceful stop timed out, forcing")
		s.Stop()
	}
}
