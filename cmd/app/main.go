package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fitlesson-settlement/internal/config"
	pg "fitlesson-settlement/internal/infra/db/postgres"
	httpapi "fitlesson-settlement/internal/infra/http"
	"fitlesson-settlement/internal/infra/logging"
	"fitlesson-settlement/internal/infra/metrics"
	"fitlesson-settlement/internal/infra/notify"
	red "fitlesson-settlement/internal/infra/redis"
	"fitlesson-settlement/internal/infra/sched"
	"fitlesson-settlement/internal/infra/transfer"
	"fitlesson-settlement/internal/infra/web"
	"fitlesson-settlement/internal/usecase"

	"fitlesson-settlement/internal/domain/ports/adapter"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop transfer, relaxed webhook auth)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go reportPoolStats(ctx, pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	dedup := red.NewEventDeduper(redisClient, cfg.Redis.DedupTTL)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	lessonRepo := pg.NewLessonRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	refundRepo := pg.NewRefundRepo(pool)
	payoutRepo := pg.NewPayoutRepo(pool)
	verifRepo := pg.NewVerificationRepo(pool)

	// ---- Adapters ----
	var exec adapter.TransferExecutor
	if cfg.Runtime.Dev || cfg.Transfer.BaseURL == "" {
		exec = transfer.NewNoopExecutor(logger)
	} else {
		exec = transfer.NewHTTPExecutor(cfg.Transfer)
	}
	notifier := notify.NewAsyncDispatcher(notify.NewLogDispatcher(logger), logger)

	// ---- Use cases ----
	cancelUC := usecase.NewCancellationUseCase(lessonRepo, paymentRepo, refundRepo, tm, logger)
	payoutUC := usecase.NewPayoutUseCase(payoutRepo, paymentRepo, tm, locker, notifier, logger)
	approvalUC := usecase.NewApprovalUseCase(refundRepo, payoutRepo, verifRepo, paymentRepo, tm, exec, notifier, logger)
	verifUC := usecase.NewVerificationUseCase(verifRepo, logger)
	eventUC := usecase.NewProcessorEventUseCase(paymentRepo, dedup, logger)
	dashUC := usecase.NewDashboardUseCase(paymentRepo, refundRepo, payoutRepo, verifRepo, logger)

	// ---- Servers & workers ----
	webhookSrv := httpapi.NewServer(cfg, eventUC, payoutUC, logger)
	adminSrv := web.NewServer(cfg, dashUC, approvalUC, cancelUC, payoutUC, verifUC,
		web.NewQueueRepos(refundRepo, payoutRepo, verifRepo), logger)
	reconciler := sched.NewTransferReconciler(10*time.Minute, time.Hour, payoutRepo, exec, logger)

	go func() {
		if err := webhookSrv.Start(); err != nil {
			logger.Error().Err(err).Msg("webhook server stopped")
		}
	}()
	go func() {
		if err := adminSrv.Start(); err != nil {
			logger.Error().Err(err).Msg("admin server stopped")
		}
	}()
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = webhookSrv.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := pool.Stat()
			metrics.SetDBPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns())
		}
	}
}
