package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"papertrail-server/internal/app"
	"papertrail-server/internal/config"
	"papertrail-server/internal/domain"
	"papertrail-server/internal/health"
	"papertrail-server/internal/http/handler"
	"papertrail-server/internal/http/middleware"
	"papertrail-server/internal/http/router"
	"papertrail-server/internal/observability"
	"papertrail-server/internal/repository"
	"papertrail-server/internal/security"
	"papertrail-server/internal/service"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "papertrail-server",
		Short: "Papertrail note-taking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(envFile); err != nil {
				return err
			}
			return run(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to env file (missing file is ignored)")
	return cmd
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, loggerProvider, err := observability.InitLogger(ctx, cfg)
	if err != nil {
		return err
	}
	runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Note{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	sessionStore := repository.NewSessionStore(redisClient, "session", cfg.StoreTimeout)
	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	jwtMgr := security.NewJWTManager(security.TokenIssuer, cfg.AccessTokenKey, cfg.RefreshTokenKey)
	cookies := security.NewCookieWriter(cfg.IsProduction(), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	authService := service.NewAuthService(userRepo, sessionStore, jwtMgr, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	noteService := service.NewNoteService(noteRepo)

	readiness := health.NewProbeRunner(cfg.StoreTimeout)
	readiness.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	readiness.Register("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	h := router.NewRouter(router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, cookies),
		NoteHandler:       handler.NewNoteHandler(noteService),
		JWTManager:        jwtMgr,
		SessionStore:      sessionStore,
		Cookies:           cookies,
		CORSOrigins:       cfg.CORSOrigins,
		Readiness:         readiness,
		CredentialLimiter: middleware.NewRateLimiter(redisClient, "auth", cfg.AuthRateLimit, cfg.AuthRateWindow),
		EnableOTelHTTP:    cfg.OTELTracesEnabled,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a := app.New(cfg, logger, server, runtime, readiness)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server listening", "addr", cfg.HTTPAddr, "env", cfg.Environment)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("http shutdown", "error", err)
		}
		if err := redisClient.Close(); err != nil {
			a.Logger.Error("redis close", "error", err)
		}
		if err := a.Observability.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("observability shutdown", "error", err)
		}
		return nil
	})
	return g.Wait()
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	switch cfg.DatabaseDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	default:
		return gorm.Open(sqlite.Open(cfg.DatabaseURL), gormCfg)
	}
}
