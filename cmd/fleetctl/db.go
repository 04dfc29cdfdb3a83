package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	repo "github.com/joseph-ayodele/fleet-tracker/internal/repository"
	"github.com/joseph-ayodele/fleet-tracker/internal/server"
)

var dbHealthTimeout time.Duration

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the fleet database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema",
	Args:  cobra.NoArgs,
	RunE:  runDBMigrate,
}

var dbHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the database answers",
	Args:  cobra.NoArgs,
	RunE:  runDBHealth,
}

func init() {
	dbHealthCmd.Flags().DurationVar(&dbHealthTimeout, "timeout", 2*time.Second, "Ping timeout")
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbHealthCmd)
	rootCmd.AddCommand(dbCmd)
}

// openDB connects without auto-migration; commands decide what to run.
func openDB(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Database.DSN == "" {
		return nil, common.NewKindError(common.CodeConfig, "DB_URL is required", common.ErrInvalidInput, nil)
	}
	dbCfg := cfg.Database
	dbCfg.AutoMigrate = false
	return server.ConnectDB(ctx, dbCfg, logger)
}

func runDBMigrate(cmd *cobra.Command, _ []string) error {
	pool, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer server.CloseDB(pool, logger)

	if err := repo.Migrate(cmd.Context(), pool, logger); err != nil {
		return err
	}
	cmd.Println("schema applied")
	return nil
}

func runDBHealth(cmd *cobra.Command, _ []string) error {
	pool, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer server.CloseDB(pool, logger)

	if err := server.PingDB(cmd.Context(), pool, logger, dbHealthTimeout); err != nil {
		cmd.Println("DB health: FAIL")
		return err
	}
	cmd.Println("DB health: OK")
	return nil
}
