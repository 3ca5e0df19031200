package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/filmdb/auth-service/internal/api"
	"github.com/filmdb/auth-service/internal/config"
	"github.com/filmdb/auth-service/internal/event"
	"github.com/filmdb/auth-service/internal/logger"
	"github.com/filmdb/auth-service/internal/model"
	"github.com/filmdb/auth-service/internal/oauth"
	"github.com/filmdb/auth-service/internal/repository/postgres"
	"github.com/filmdb/auth-service/internal/security"
	"github.com/filmdb/auth-service/internal/service"
	"github.com/filmdb/auth-service/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	loginRepo := postgres.NewUserLoginRepository(db)
	pendingRepo := postgres.NewPendingRegistrationRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)

	hasher := security.NewArgon2Hasher()
	codes := security.NewCodeGenerator()
	tokenProvider := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	exchanger := oauth.NewGoogleExchanger(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL, cfg.OAuth.Timeout)

	publisher := event.NewPublisher(func(ctx context.Context, ev model.UserRegistered) error {
		// Mail delivery would go here; until then the event is logged.
		logger.Info("user registered",
			"user_id", ev.UserID,
			"email", ev.Email.String())
		return nil
	}, cfg.Events.QueueSize, logger)
	defer publisher.Close()

	tokenService := service.NewTokenService(tokenProvider, refreshTokenRepo, codes, logger)
	authService := service.NewAuth(userRepo, loginRepo, pendingRepo, hasher, codes, exchanger, publisher, tokenService, logger)

	app := api.NewRouter(authService, tokenService, db, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf(":%s", cfg.HTTP.Port)
		logger.Info("Starting server on", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
