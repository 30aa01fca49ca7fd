package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studio-data/internal/config"
	"studio-data/internal/database"
	"studio-data/internal/migrate"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			color.Red("❌ Cannot connect to database: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()

		if migrateStatus {
			pending, err := migrate.Pending(ctx, db)
			if err != nil {
				color.Red("❌ Status check failed: %v", err)
				os.Exit(1)
			}
			history, err := migrate.History(ctx, db)
			if err != nil {
				color.Red("❌ Status check failed: %v", err)
				os.Exit(1)
			}
			for _, a := range history {
				color.Green("✅ %s (applied %s)", a.Filename, a.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, name := range pending {
				color.Yellow("⏳ %s (pending)", name)
			}
			if len(pending) == 0 {
				fmt.Println("Database is up to date.")
			}
			return
		}

		applied, err := migrate.Apply(ctx, db)
		if err != nil {
			color.Red("❌ Migration failed: %v", err)
			os.Exit(1)
		}
		if len(applied) == 0 {
			fmt.Println("Nothing to apply.")
			return
		}
		for _, name := range applied {
			color.Green("✅ %s", name)
		}
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Show applied and pending migrations without applying")
}
