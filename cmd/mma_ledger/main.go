package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/mma_ledger/internal/core/services"
	"github.com/SscSPs/mma_ledger/internal/platform/config"
	"github.com/SscSPs/mma_ledger/internal/platform/logging"
	"github.com/SscSPs/mma_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/mma_ledger/pkg/database"
)

// mma_ledger bootstraps the ledger against PostgreSQL: it applies the schema,
// then checks that every stored running balance matches its line history and
// that the trial balance balances. It exits non-zero when either check fails.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		return 1
	}

	// Initialize structured logger
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Every line of this run carries the same run id.
	runLogger := logger.With(slog.String("run_id", uuid.NewString()))
	ctx = logging.WithLogger(ctx, runLogger)
	logger = runLogger

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			return 1
		}
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		return 1
	}
	defer database.ClosePgxPool(dbPool)

	ledger := services.NewServiceContainer(pgsql.NewRepositoryProvider(dbPool), services.OptionsFromConfig(cfg)...)

	var driftCount int
	var balanced bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		drifts, err := ledger.Query.VerifyBalances(gctx)
		driftCount = len(drifts)
		return err
	})
	g.Go(func() error {
		tb, err := ledger.Query.TrialBalance(gctx, nil)
		if err == nil {
			balanced = tb.Balanced
			logger.InfoContext(gctx, "Trial balance",
				slog.Int("accounts", len(tb.Rows)),
				slog.String("total_debits", tb.TotalDebits.String()),
				slog.String("total_credits", tb.TotalCredits.String()))
		}
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Ledger verification failed", slog.String("error", err.Error()))
		return 1
	}

	if driftCount > 0 || !balanced {
		logger.Error("Ledger is inconsistent",
			slog.Int("drifted_accounts", driftCount),
			slog.Bool("trial_balance_balanced", balanced))
		return 1
	}
	logger.Info("Ledger verified", slog.Bool("trial_balance_balanced", balanced))
	return 0
}
