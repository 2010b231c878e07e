package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fermingonzalezs/sistema-update-sub002/cmd/sistema/cli"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/app"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/compras"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/importaciones"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/integration"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/clientes"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/proveedores"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/observability"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/cache"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/db"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/shared"
	"github.com/fermingonzalezs/sistema-update-sub002/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, selector cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	hooks := integration.NewHooks(pool, logger)

	comprasRepo := compras.NewRepository(pool)
	comprasService := compras.NewService(comprasRepo)
	comprasHandler := compras.NewHandler(logger, comprasService)

	importacionesRepo := importaciones.NewRepository(pool)
	importacionesService := importaciones.NewService(importacionesRepo, comprasService, auditLogger, idempotencyStore, hooks)
	importacionesHandler := importaciones.NewHandler(logger, importacionesService)

	opcionesCache := cache.NewOptionsCache(redisClient, cfg.OptionsCacheTTL)

	proveedoresRepo := proveedores.NewRepository(pool)
	proveedoresService := proveedores.NewService(proveedoresRepo, opcionesCache)
	proveedoresHandler := proveedores.NewHandler(logger, proveedoresService)

	clientesRepo := clientes.NewRepository(pool)
	clientesService := clientes.NewService(clientesRepo, opcionesCache)
	clientesHandler := clientes.NewHandler(logger, clientesService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		ImportacionHandler: importacionesHandler,
		ComprasHandler:     comprasHandler,
		ProveedoresHandler: proveedoresHandler,
		ClientesHandler:    clientesHandler,
		JobHandler:         jobHandler,
		Pool:               pool,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// runJobsCommand handles `sistema jobs trigger <name>` and `sistema jobs stats`
// without starting the HTTP server.
func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sistema jobs trigger|stats")
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return fmt.Errorf("usage: sistema jobs trigger <%s|%s>", jobs.TaskIdempotencyCleanup, jobs.TaskCostIntegrity)
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		printTaskInfo(info)
		return nil
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	default:
		return fmt.Errorf("jobs: unknown subcommand %s", args[0])
	}
}

func printTaskInfo(info *asynq.TaskInfo) {
	if info == nil {
		return
	}
	fmt.Printf("enqueued id=%s type=%s queue=%s\n", info.ID, info.Type, info.Queue)
}
