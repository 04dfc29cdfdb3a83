package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/decode"
	"github.com/joseph-ayodele/fleet-tracker/internal/events"
	"github.com/joseph-ayodele/fleet-tracker/internal/export"
	"github.com/joseph-ayodele/fleet-tracker/internal/ingest"
	"github.com/joseph-ayodele/fleet-tracker/internal/invoice"
	repo "github.com/joseph-ayodele/fleet-tracker/internal/repository"
	"github.com/joseph-ayodele/fleet-tracker/internal/server"
	"github.com/joseph-ayodele/fleet-tracker/internal/services/invoicing"
	"github.com/joseph-ayodele/fleet-tracker/internal/services/rateconf"
	"github.com/joseph-ayodele/fleet-tracker/internal/storage"
)

const healthPollInterval = 15 * time.Second

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer server.CloseDB(pool, logger)

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to set up invoice storage", "error", err)
		os.Exit(1)
	}

	publisher := events.New(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}()

	loadsRepo := repo.NewLoadRepository(pool, logger)
	invoicesRepo := repo.NewInvoiceRepository(pool, logger)

	decoder := decode.NewDispatcher(decode.ConfigFrom(cfg.Decode), logger)
	rateconSvc := rateconf.NewService(decoder, rateconf.NewExtractor(cfg.RateCon), loadsRepo, publisher, logger)
	renderer := invoice.NewRenderer(invoice.ConfigFrom(cfg.Invoice), logger)
	invoicingSvc := invoicing.NewService(loadsRepo, invoicesRepo, renderer, store, publisher, logger)
	exportSvc := export.NewService(loadsRepo, logger)

	router := server.NewRouter(server.Deps{
		RateCon:        rateconSvc,
		Loads:          loadsRepo,
		Invoices:       invoicingSvc,
		Export:         exportSvc,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})
	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("fleetd http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	var grpcServer *grpc.Server
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer()
		healthServer := health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		reflection.Register(grpcServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

		wg.Add(1)
		go func() {
			defer wg.Done()
			watchDatabase(ctx, pool, healthServer, logger)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("fleetd health listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
			}
		}()
	}

	if cfg.Ingest.InboxDir != "" {
		inbox, err := ingest.NewInbox(cfg.Ingest, rateconSvc, logger)
		if err != nil {
			logger.Error("failed to set up inbox", "error", err)
			os.Exit(1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inbox.Run(ctx); err != nil {
				logger.Error("inbox stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("fleetd shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	wg.Wait()
}

// watchDatabase flips the overall health status with database reachability.
func watchDatabase(ctx context.Context, pool *pgxpool.Pool, hs *health.Server, logger *slog.Logger) {
	t := time.NewTicker(healthPollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			status := grpc_health_v1.HealthCheckResponse_SERVING
			if err := repo.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}
