package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnshRaj112/moodjournal-backend/internal/database"
	"github.com/AnshRaj112/moodjournal-backend/internal/handlers"
	"github.com/AnshRaj112/moodjournal-backend/internal/logger"
	"github.com/AnshRaj112/moodjournal-backend/internal/middleware"
	"github.com/AnshRaj112/moodjournal-backend/internal/routes"
	"github.com/AnshRaj112/moodjournal-backend/internal/services"
	"github.com/AnshRaj112/moodjournal-backend/pkg/utils"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log := globalConfig, globalLog

	// Connect to PostgreSQL
	log.Info("Connecting to PostgreSQL...", zap.String("uri", logger.MaskURI(cfg.PostgresURI)))
	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, log)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close()
	if err := database.InitPostgresTables(ctx, db, log); err != nil {
		return err
	}

	// Connect to Redis
	log.Info("Connecting to Redis...", zap.String("uri", logger.MaskURI(cfg.RedisURI)))
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, log)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer rdb.Close()

	// Connect to MongoDB
	log.Info("Connecting to MongoDB...", zap.String("uri", logger.MaskURI(cfg.MongoURI)))
	mongoClient, mdb, err := database.ConnectMongo(ctx, cfg.MongoURI, log)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer database.DisconnectMongo(mongoClient)

	cipher, err := utils.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Warn("⚠️  Stored analysis text will not be encrypted", zap.Error(err))
		log.Warn("   Generate a key with: openssl rand -base64 32")
	} else {
		log.Info("✅ Encryption key configured")
	}
	analyses := services.NewMongoAnalysisStore(mdb, cipher)
	if err := analyses.EnsureIndexes(ctx); err != nil {
		log.Warn("⚠️  failed to ensure MongoDB mood analysis indexes", zap.Error(err))
	}

	var completer services.Completer
	if cfg.Mood.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiCompleter(ctx, cfg.Mood.GeminiAPIKey, cfg.Mood.Model)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		completer = gemini
		log.Info("✅ Mood analysis enabled", zap.String("model", cfg.Mood.Model))
	} else {
		log.Warn("GEMINI_API_KEY not set. Mood analysis will not be available")
	}

	var uploader services.AvatarUploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn("Failed to initialize Cloudinary. Avatar uploads will not be available", zap.Error(err))
		} else {
			uploader = cld
			log.Info("✅ Cloudinary service initialized")
		}
	} else {
		log.Warn("Cloudinary credentials not found. Avatar uploads will not be available")
	}

	users := services.NewPostgresUserStore(db)
	events := services.NewRedisEventPublisher(rdb)
	hub := services.NewSessionHub(log)
	go hub.Run(ctx, rdb)

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		smtp, err := services.NewSMTPMailer(services.SMTPSettings{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
		if err != nil {
			return err
		}
		mailer = smtp
		log.Info("✅ SMTP mailer initialized", zap.String("host", cfg.SMTP.Host))
	} else {
		mailer = services.NewLogMailer(log)
		log.Warn("SMTP not configured. Password reset links are only logged at debug level")
	}

	auth := services.NewAuthService(services.AuthDeps{
		Users:    users,
		Sessions: services.NewRedisSessionStore(rdb, cfg.SessionTTL),
		Events:   events,
		Mailer:   mailer,
		ResetURL: cfg.PasswordResetURL,
		Log:      log,
	})
	analyzer := services.NewMoodAnalyzer(completer, analyses, cfg.Mood.Timeout, log)

	h := handlers.New(handlers.Deps{
		Auth:           auth,
		Journals:       services.NewJournalService(services.NewPostgresJournalStore(db), analyzer, cfg.Mood.FilterThreshold),
		Moods:          analyzer,
		Profiles:       services.NewProfileService(users, services.NewCache(rdb), uploader, events, log),
		Events:         hub,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	limits := middleware.DefaultRateLimitConfig()
	limits.TrustProxy = cfg.TrustProxy
	opts := routes.Options{
		Sessions:       auth,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		Production:     cfg.IsProduction(),
		RateLimiter:    middleware.NewRedisRateLimiter(rdb, limits, log),
		Login:          middleware.LoginLimiter(),
		Analysis:       middleware.AnalysisLimiter(),
		Log:            log,
	}
	if opts.Production {
		opts.Global = middleware.GlobalLimiter()
		go opts.Global.Run(ctx)
		log.Info("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	}
	go opts.Login.Run(ctx)
	go opts.Analysis.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(h, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Mood journal backend running", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
