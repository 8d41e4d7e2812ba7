// README: ridectl seed: loads a CSV dataset into Postgres and optionally Neo4j.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"campusride/internal/config"
	"campusride/internal/infra"
	"campusride/internal/modules/records"
	"campusride/internal/modules/social"
)

func newSeedCmd() *cobra.Command {
	var (
		dir       string
		migration string
		skipGraph bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import users.csv, connections.csv, grps.csv and grp_members.csv",
		Long: `Import a CSV dataset into the catalog database.

Connection settings come from the RIDE_* environment (RIDE_DB_DSN,
RIDE_GRAPH_URI, ...). Existing rows are kept; only missing ones are added.
When RIDE_GRAPH_URI is set, users and friendships are mirrored into Neo4j.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := infra.NewLogger(config.LogConfig{Level: cfg.Log.Level, Format: "console"})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			snap, err := records.LoadDir(dir)
			if err != nil {
				return err
			}

			db, err := infra.NewDB(ctx, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if migration != "" {
				ddl, err := os.ReadFile(migration)
				if err != nil {
					return err
				}
				if _, err := db.Exec(ctx, string(ddl)); err != nil {
					return fmt.Errorf("apply migration %s: %w", migration, err)
				}
				logger.Info("migration applied", zap.String("path", migration))
			}

			if err := records.NewStore(db).Import(ctx, snap); err != nil {
				return err
			}
			logger.Info("postgres seeded",
				zap.Int("users", len(snap.Users)),
				zap.Int("connections", len(snap.Connections)),
				zap.Int("groups", len(snap.Groups)),
				zap.Int("memberships", len(snap.Memberships)),
			)

			if skipGraph || cfg.Graph.URI == "" {
				return nil
			}
			gc, err := infra.NewGraph(ctx, infra.GraphOptions{
				URI:      cfg.Graph.URI,
				Database: cfg.Graph.Database,
				Username: cfg.Graph.Username,
				Password: cfg.Graph.Password,
			})
			if err != nil {
				return err
			}
			defer func() { _ = gc.Close(ctx) }()
			if err := social.NewStore(gc).Import(ctx, snap.Users, snap.Connections); err != nil {
				return err
			}
			logger.Info("neo4j seeded", zap.String("uri", cfg.Graph.URI))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the CSV files")
	cmd.Flags().StringVar(&migration, "migrate", "", "apply this SQL file before importing")
	cmd.Flags().BoolVar(&skipGraph, "skip-graph", false, "do not mirror friendships into Neo4j")
	return cmd
}
