package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/moodjournal-backend/internal/database"
	"github.com/AnshRaj112/moodjournal-backend/internal/logger"
	"github.com/AnshRaj112/moodjournal-backend/internal/services"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL tables and MongoDB indexes, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log := globalConfig, globalLog

		log.Info("Connecting to PostgreSQL...", zap.String("uri", logger.MaskURI(cfg.PostgresURI)))
		db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, log)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()
		if err := database.InitPostgresTables(ctx, db, log); err != nil {
			return err
		}

		log.Info("Connecting to MongoDB...", zap.String("uri", logger.MaskURI(cfg.MongoURI)))
		client, mdb, err := database.ConnectMongo(ctx, cfg.MongoURI, log)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer database.DisconnectMongo(client)
		if err := services.NewMongoAnalysisStore(mdb, nil).EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to ensure mood analysis indexes: %w", err)
		}

		log.Info("✅ Migration complete")
		return nil
	},
}
