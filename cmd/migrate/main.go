package main

import (
	"fmt"
	"os"

	"reconcile-be/internal/model"
	"reconcile-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var dsn string

var setupSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
}

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the reconcile database schema",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dsn == "" {
			dsn = os.Getenv("DB_CONNECTION_STRING")
		}
		if dsn == "" {
			return fmt.Errorf("DB_CONNECTION_STRING is not set (or pass --dsn)")
		}
		return nil
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create extensions and auto-migrate every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewGormDBFromDSN(dsn)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}

		color.Yellow("Step 1: Setting up extensions...")
		for _, sql := range setupSQL {
			if err := db.Exec(sql).Error; err != nil {
				color.Red("Warn: %v. Continuing...", err)
			}
		}

		models := model.AllModels()
		color.Yellow("Step 2: Running AutoMigrate for %d tables...", len(models))
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}

		color.Green("✅ Migration complete")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report which tables exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewGormDBFromDSN(dsn)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		missing := reportTables(db)
		if missing > 0 {
			return fmt.Errorf("%d tables missing, run `migrate up`", missing)
		}
		return nil
	},
}

func reportTables(db *gorm.DB) int {
	missing := 0
	for _, m := range model.AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			color.Red("  ? %T: %v", m, err)
			missing++
			continue
		}
		if db.Migrator().HasTable(m) {
			color.Green("  ✓ %s", stmt.Schema.Table)
		} else {
			color.Red("  ✗ %s", stmt.Schema.Table)
			missing++
		}
	}
	return missing
}

func main() {
	if err := godotenv.Load(); err != nil {
		color.Cyan("Info: No .env file found, using system env")
	}

	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "database connection string (defaults to DB_CONNECTION_STRING)")
	rootCmd.AddCommand(upCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
