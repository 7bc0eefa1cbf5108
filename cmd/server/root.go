package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnshRaj112/moodjournal-backend/internal/config"
	"github.com/AnshRaj112/moodjournal-backend/internal/logger"
)

var (
	globalConfig *config.Config
	globalLog    *zap.Logger
	envFile      string
)

var rootCmd = &cobra.Command{
	Use:   "moodjournal",
	Short: "Mood journal API server",
	Long: `Backend for the mood journal app: accounts and sessions, journal
entries in PostgreSQL, mood analysis through Gemini, and auth state
changes over WebSocket. Running without a subcommand starts the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		// Load env
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg

		log, err := logger.New(cfg.IsProduction())
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		globalLog = log
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if globalLog != nil {
			_ = globalLog.Sync()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}
