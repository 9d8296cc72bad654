package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"univendor/internal/config"
	"univendor/internal/db"
	"univendor/internal/logging"
	"univendor/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "revert this many migrations instead of applying (-1 reverts all)")
	version := flag.Bool("version", false, "print the applied schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, !cfg.Production)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.Named("migrate")

	ctx := context.Background()
	poolOpts := db.DefaultPoolOptions("univendor-migrate")
	poolOpts.MaxConns = cfg.DBMaxConns
	poolOpts.MinConns = cfg.DBMinConns
	pool, err := db.Connect(ctx, cfg.DBConnString, poolOpts, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	switch {
	case *version:
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatal("read version", zap.Error(err))
		}
		logger.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	case *down != 0:
		steps := *down
		if steps < 0 {
			steps = 0
		}
		if err := migrate.Rollback(ctx, pool, steps); err != nil {
			logger.Fatal("revert migrations", zap.Error(err))
		}
		logger.Info("migrations reverted", zap.Int("steps", *down))
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}
}
