package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/database"
	"github.com/OldStager01/alert-arbiter/pkg/database/queries"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the alert history schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Database.Enabled {
			return errors.New("database.enabled is false, nothing to migrate")
		}

		db, err := database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Database.MigrationTimeout)
		defer cancel()

		migrator := database.NewMigrator(db)
		pending, err := migrator.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		} else {
			logger.Infof("Applying %d migrations", len(pending))
			if err := migrator.Run(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			for _, f := range pending {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", f)
			}
		}

		if pruneOlderThan <= 0 {
			return nil
		}
		deleted, err := queries.NewAlertHistoryRepository(db).DeleteOlderThan(ctx, time.Now().Add(-pruneOlderThan))
		if err != nil {
			return fmt.Errorf("prune failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d history rows\n", deleted)
		return nil
	},
}

var pruneOlderThan time.Duration

func init() {
	migrateCmd.Flags().DurationVar(&pruneOlderThan, "prune-older-than", 0, "delete alert history older than this age")
}
