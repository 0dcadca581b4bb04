// cmd/import/main.go
//
// hostcat-import – spreadsheet importer entry point.
//
// Loads the same configuration as cmd/web, opens the catalog database, and
// hands both to the command tree in internal/commands.  Events go to the
// daily log file and to the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/commands"
	"github.com/yanizio/hostcat/internal/config"
	"github.com/yanizio/hostcat/internal/database"
	"github.com/yanizio/hostcat/internal/logger"
)

func open(cmd *cobra.Command) (*commands.Env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	sugar, err := logger.New(cfg.Paths.Root, cfg.Log.Level, true)
	if err != nil {
		return nil, nil, fmt.Errorf("start logger: %w", err)
	}
	lg := sugar.Desugar()

	db, err := database.OpenWithOptions(cmd.Context(), cfg.Database.Driver, cfg.Database.ResolvedDSN(), database.Options{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Retries:         database.DefaultOptions.Retries,
		RetryBackoff:    database.DefaultOptions.RetryBackoff,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect catalog DB: %w", err)
	}
	if cfg.Database.Migrate {
		if err := database.Migrate(cmd.Context(), db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	release := func() {
		db.Close()
		_ = lg.Sync()
	}
	return &commands.Env{Config: cfg, Store: catalog.NewSQLStore(db), Log: lg}, release, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRoot(open, os.Stdout).ExecuteContext(ctx); err != nil {
		zap.L().Error("import failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
