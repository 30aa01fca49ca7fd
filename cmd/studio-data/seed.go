package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studio-data/internal/config"
	"studio-data/internal/database"
	"studio-data/internal/repository"
	"studio-data/internal/seed"
)

var (
	seedTenant string
	seedFile   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load statuses and field definitions for a tenant from YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if seedTenant == "" {
			color.Red("❌ --tenant is required")
			os.Exit(1)
		}

		plan, err := seed.LoadFile(seedFile)
		if err != nil {
			color.Red("❌ Seed file invalid: %v", err)
			os.Exit(1)
		}

		cfg := config.Load()
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			color.Red("❌ Cannot connect to database: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		statusesRepo := repository.NewPostgresLeadStatusesRepository(db)
		defsRepo := repository.NewPostgresFieldDefinitionsRepository(db)

		statuses, defs, err := seed.Apply(context.Background(), plan, statusesRepo, defsRepo, seedTenant)
		if err != nil {
			color.Red("❌ Seed failed: %v", err)
			os.Exit(1)
		}
		color.Green("✅ Seeded %d statuses and %d field definitions for tenant %s", statuses, defs, seedTenant)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedTenant, "tenant", "", "Tenant ID to seed")
	seedCmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "Seed YAML file")
}
