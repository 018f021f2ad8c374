package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/zoff-tech/line-relay/pkg/archive"
	"github.com/zoff-tech/line-relay/pkg/config"
	"github.com/zoff-tech/line-relay/pkg/dispatch"
	"github.com/zoff-tech/line-relay/pkg/line"
	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/storage"
	"github.com/zoff-tech/line-relay/pkg/store"
	"github.com/zoff-tech/line-relay/pkg/telemetry"
	"github.com/zoff-tech/line-relay/pkg/worker"
)

func setupLogger() {
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if err, ok := a.Value.Any().(error); ok {
					aErr := tint.Err(err)
					aErr.Key = a.Key
					return aErr
				}
				return a
			},
		}),
	)
	slog.SetDefault(logger)
}

func main() {
	setupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from file or environment
	cfg, err := config.LoadFromFile("./cmd/relay")
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	// Initialize telemetry (tracing)
	shutdownTelemetry, err := telemetry.Init(cfg.Observability)
	if err != nil {
		log.Fatal("Failed to initialize telemetry: ", err)
	}
	defer shutdownTelemetry() // Ensure telemetry is properly shut down on exit

	logger := slog.Default()

	lineClient := line.NewClient(cfg.Line)
	archiveClient := archive.NewClient(cfg.Archive)

	files, err := storage.NewDirStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to initialize filestore: ", err)
	}

	metaCfg := cfg.Metadata
	if metaCfg.Type == "file" && metaCfg.Path == "" {
		metaCfg.Path = cfg.Storage.Path
	}
	receipts, err := store.NewRepository(ctx, metaCfg)
	if err != nil {
		log.Fatal("Failed to initialize receipt repository: ", err)
	}
	defer receipts.Close(context.Background())

	queues := queue.NewStore()
	sched := queue.NewScheduler()
	wcfg := worker.Config{
		MaxAttempts:   cfg.Workers.MaxAttempts,
		Retry:         queue.Window{Min: cfg.Workers.RetryMin, Max: cfg.Workers.RetryMax},
		TranscodeWait: queue.Window{Min: cfg.Workers.TranscodeWaitMin, Max: cfg.Workers.TranscodeWaitMax},
	}

	steps := []worker.Step{
		worker.NewLoading(queues, lineClient, sched, wcfg, logger),
		worker.NewTranscoding(queues, lineClient, sched, wcfg, logger),
		worker.NewDownloading(queues, lineClient, files, sched, wcfg, cfg.Archive.Extensions, logger),
		worker.NewOutgoing(queues, lineClient, receipts, sched, wcfg, logger),
		worker.NewArchival(queues, archiveClient, sched, wcfg, cfg.Archive.TaskPollInterval, cfg.Archive.TaskPollBudget, logger),
	}

	dispatcher := dispatch.NewDispatcher(queues, logger)
	handler := dispatch.NewWebhookHandler(dispatcher, cfg.Line.ChannelSecret, cfg.AllowUserIDs, logger)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: dispatch.NewServeMux(handler)}

	g, ctx := errgroup.WithContext(ctx)
	for _, step := range steps {
		runner := worker.NewRunner(step, cfg.Workers.TickInterval, logger)
		g.Go(func() error { return runner.Run(ctx) })
	}
	g.Go(func() error {
		logger.Info("webhook server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("relay exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("relay stopped")
}
