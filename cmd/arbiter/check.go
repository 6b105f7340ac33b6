package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OldStager01/alert-arbiter/pkg/database"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and probe every configured dependency",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		report := func(name string, err error) {
			if err != nil {
				fmt.Fprintf(out, "%-10s FAIL  %v\n", name, err)
				return
			}
			fmt.Fprintf(out, "%-10s ok\n", name)
		}
		fmt.Fprintf(out, "%-10s ok\n", "config")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		failed := 0
		probe := func(name string, fn func() error) {
			err := fn()
			if err != nil {
				failed++
			}
			report(name, err)
		}

		table, terr := loadTable(cfg)
		probe("table", func() error { return terr })

		if terr == nil {
			probe("collector", func() error {
				coll, _, err := newCollector(cfg, table)
				if err != nil {
					return err
				}
				defer coll.Close()
				return coll.HealthCheck(ctx)
			})
		}

		if cfg.Database.Enabled {
			probe("database", func() error {
				db, err := database.New(cfg.Database.ToDBConfig())
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.HealthCheck(ctx); err != nil {
					return err
				}
				version, err := db.ServerVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-10s %s\n", "", version)
				return nil
			})
		}

		if cfg.Redis.Enabled {
			probe("redis", func() error {
				rs, err := newRedisSink(cfg)
				if err != nil {
					return err
				}
				return rs.Close()
			})
		}

		if failed > 0 {
			return fmt.Errorf("%d checks failed", failed)
		}
		return nil
	},
}
