package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	ledgerapp "github.com/opsdesk/backend/internal/application/ledger"
	"github.com/opsdesk/backend/internal/infrastructure/config"
	"github.com/opsdesk/backend/internal/infrastructure/logger"
	"github.com/opsdesk/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Minute

func main() {
	// Parse flags
	var (
		logLevel string
		timeout  time.Duration
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", defaultTimeout, "Maximum run duration")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	legacyRepo := persistence.NewGormLegacyRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)
	svc := ledgerapp.NewMigrationService(ledgerRepo, legacyRepo, uow, log)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch command {
	case "run":
		log.Info("Starting ledger back-fill")
		summary, err := svc.Run(ctx)
		if err != nil {
			log.Fatal("Ledger back-fill failed", zap.Error(err))
		}
		log.Info("Ledger back-fill finished",
			zap.Bool("success", summary.Success),
			zap.Int("migrated", summary.TotalMigrated),
			zap.Int("skipped", summary.Skipped),
			zap.Int("errors", len(summary.Errors)),
		)
		for _, e := range summary.Errors {
			log.Warn("Record failed to migrate",
				zap.String("source", e.Source),
				zap.String("legacy_id", e.LegacyID),
				zap.String("message", e.Message),
			)
		}
		if !summary.Success {
			os.Exit(1)
		}

	case "verify":
		report, err := svc.Verify(ctx)
		if err != nil {
			log.Fatal("Verification failed", zap.Error(err))
		}
		for _, s := range report.Sources {
			log.Info("Source counts",
				zap.String("source", s.Source),
				zap.Int64("legacy", s.LegacyCount),
				zap.Int64("migrated", s.MigratedCount),
				zap.Bool("match", s.Match),
			)
		}
		if !report.Match {
			log.Error("Verification mismatch: legacy and migrated counts differ")
			os.Exit(1)
		}
		log.Info("Verification passed: all sources fully migrated")

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`OpsDesk Ledger Back-fill Tool

Usage:
  ledger-migrate [flags] <command>

Commands:
  run       Migrate legacy billing records into the financial ledger.
            Idempotent: records already present (matched by backlink) are
            skipped, so the command is safe to re-run after failures.
  verify    Compare legacy record counts against migrated entry counts
            per source without writing anything. Exits non-zero on mismatch.

Flags:
  -log-level string   Log level: debug, info, warn, error (default: info)
  -timeout duration   Maximum run duration (default: 30m)

Environment Variables:
  OPSDESK_DATABASE_HOST, OPSDESK_DATABASE_PORT, OPSDESK_DATABASE_USER,
  OPSDESK_DATABASE_PASSWORD, OPSDESK_DATABASE_NAME, OPSDESK_DATABASE_SSLMODE

Examples:
  # Back-fill the ledger from legacy billing tables
  ledger-migrate run

  # Check that every legacy record has a ledger entry
  ledger-migrate verify`)
}
