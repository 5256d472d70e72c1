// Package main is the entry point for the Cryptofolio portfolio dashboard.
// The application tracks a crypto portfolio against an immutable transaction
// ledger, analyzes market conditions (RSI, heat, advice) and serves the
// results over a REST API.
//
// Four databases back the system:
// - ledger.db: immutable transaction log (source of truth for cost basis)
// - portfolio.db: current holdings and price targets
// - history.db: daily close series and valuation snapshots
// - cache.db: ephemeral API response cache
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erold/cryptofolio/internal/clientdata"
	"github.com/erold/cryptofolio/internal/clients/chains"
	"github.com/erold/cryptofolio/internal/clients/cryptocompare"
	"github.com/erold/cryptofolio/internal/clients/feargreed"
	"github.com/erold/cryptofolio/internal/config"
	"github.com/erold/cryptofolio/internal/database"
	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/market"
	"github.com/erold/cryptofolio/internal/modules/analysis"
	analysishandlers "github.com/erold/cryptofolio/internal/modules/analysis/handlers"
	"github.com/erold/cryptofolio/internal/modules/history"
	historyhandlers "github.com/erold/cryptofolio/internal/modules/history/handlers"
	"github.com/erold/cryptofolio/internal/modules/planner"
	plannerhandlers "github.com/erold/cryptofolio/internal/modules/planner/handlers"
	"github.com/erold/cryptofolio/internal/modules/portfolio"
	portfoliohandlers "github.com/erold/cryptofolio/internal/modules/portfolio/handlers"
	"github.com/erold/cryptofolio/internal/reliability"
	"github.com/erold/cryptofolio/internal/scheduler"
	"github.com/erold/cryptofolio/internal/server"
	"github.com/erold/cryptofolio/pkg/logger"
)

const jobTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Cryptofolio")

	// Databases
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
		Schema:  portfolio.LedgerSchema,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	portfolioDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
		Schema:  portfolio.PortfolioSchema,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
		Schema:  history.Schema,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
		Schema:  clientdata.Schema,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	// Repositories
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	ledgerRepo := portfolio.NewLedgerRepository(ledgerDB.Conn())
	holdingRepo := portfolio.NewHoldingRepository(portfolioDB.Conn())
	targetRepo := portfolio.NewTargetRepository(portfolioDB.Conn())
	priceRepo := history.NewPriceRepository(historyDB.Conn())
	snapshotRepo := history.NewSnapshotRepository(historyDB.Conn())

	// External clients. History series are fetched in USD: analysis levels
	// (ATH, support, resistance) are quoted in USD.
	marketClient := cryptocompare.NewClient(cfg.CryptoCompareKey, domain.CurrencyUSD, cacheRepo, log)
	sentimentClient := feargreed.NewClient(cacheRepo, log)

	var readers []domain.ChainBalanceReader
	if cfg.Wallets.XRP != "" {
		readers = append(readers, chains.NewXRPLReader(cfg.Wallets.XRP, cacheRepo, log))
	}
	if cfg.Wallets.QNT != "" {
		readers = append(readers, chains.NewERC20Reader("QNT", chains.QNTContract, 18, cfg.Wallets.QNT, cfg.EtherscanKey, cacheRepo, log))
	}
	if cfg.Wallets.HBAR != "" {
		readers = append(readers, chains.NewHederaReader(cfg.Wallets.HBAR, cacheRepo, log))
	}
	if cfg.Wallets.XDC != "" {
		readers = append(readers, chains.NewXDCReader(cfg.Wallets.XDC, cacheRepo, log))
	}

	// Services
	displayCurrency := domain.Currency(cfg.DisplayCurrency)
	marketState := market.NewState()
	reconciler := portfolio.NewReconciler(holdingRepo, ledgerRepo, log)
	portfolioService := portfolio.NewService(holdingRepo, ledgerRepo, targetRepo, reconciler, marketState, displayCurrency, log)
	syncService := portfolio.NewWalletSyncService(holdingRepo, readers, log)
	analysisService := analysis.NewService(holdingRepo, ledgerRepo, marketState, log)
	plannerService := planner.NewService(analysisService, displayCurrency, log)
	historyService := history.NewService(priceRepo, snapshotRepo, holdingRepo, ledgerRepo, marketState, displayCurrency, log)

	// Reconcile derived cost fields against the ledger and seed market state
	// from persisted history before the first refresh.
	if err := reconciler.Recalculate(); err != nil {
		log.Error().Err(err).Msg("Startup reconciliation failed")
	}
	if err := historyService.LoadPersisted(); err != nil {
		log.Error().Err(err).Msg("Failed to load persisted history")
	}

	// Cloud backups (optional)
	var backupService *reliability.BackupService
	if cfg.BackupEnabled() {
		s3Client, err := reliability.NewS3Client(reliability.S3Config{
			Bucket:    cfg.Backup.Bucket,
			Endpoint:  cfg.Backup.Endpoint,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
			Region:    cfg.Backup.Region,
		}, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create S3 client, backups disabled")
		} else {
			backupService = reliability.NewBackupService(
				s3Client,
				[]*database.DB{ledgerDB, portfolioDB, historyDB},
				cfg.DataDir,
				0,
				log,
			)
		}
	}

	// Background refresh pipelines
	sched := scheduler.New(log)

	pricesJob := &scheduler.PricesJob{
		Provider:  marketClient,
		Holdings:  holdingRepo,
		State:     marketState,
		Analysis:  analysisService,
		Portfolio: portfolioService,
		Timeout:   jobTimeout,
		Log:       log,
	}
	sentimentJob := &scheduler.SentimentJob{
		Provider: sentimentClient,
		State:    marketState,
		Analysis: analysisService,
		Timeout:  jobTimeout,
	}
	historyJob := &scheduler.HistoryJob{
		Provider: marketClient,
		Holdings: holdingRepo,
		State:    marketState,
		History:  historyService,
		Analysis: analysisService,
		Timeout:  10 * time.Minute,
		Log:      log,
	}
	walletSyncJob := &scheduler.WalletSyncJob{Sync: syncService, Timeout: jobTimeout}
	snapshotJob := &scheduler.SnapshotJob{History: historyService}

	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Refresh.Prices, pricesJob},
		{cfg.Refresh.Sentiment, sentimentJob},
		{cfg.Refresh.History, historyJob},
		{cfg.Refresh.WalletSync, walletSyncJob},
		{cfg.Refresh.Snapshot, snapshotJob},
	}
	if backupService != nil {
		jobs = append(jobs, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Backup.Schedule, &scheduler.BackupJob{Backup: backupService, Timeout: 10 * time.Minute}})
	}

	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to schedule job")
		}
	}

	// Prime the pipelines so the API serves data immediately instead of
	// waiting for the first cron ticks.
	go func() {
		_ = sched.RunNow(historyJob)
		_ = sched.RunNow(sentimentJob)
		_ = sched.RunNow(pricesJob)
	}()

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		DataDir:   cfg.DataDir,
		Databases: []*database.DB{ledgerDB, portfolioDB, historyDB, cacheDB},
		Portfolio: portfoliohandlers.NewHandler(portfolioService, syncService, log),
		Analysis:  analysishandlers.NewHandler(analysisService, log),
		Planner:   plannerhandlers.NewHandler(plannerService, log),
		History:   historyhandlers.NewHandler(historyService, log),
		Backup:    backupService,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
