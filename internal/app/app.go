package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"expertgate/docs"
	"expertgate/internal/config"
	"expertgate/internal/handlers"
	"expertgate/internal/logging"
	"expertgate/internal/middleware"
	"expertgate/internal/migrations"
	"expertgate/internal/realtime"
	"expertgate/internal/repositories"
	"expertgate/internal/routes"
	"expertgate/internal/services"
)

// Run loads configuration, wires every component and serves until SIGINT or
// SIGTERM.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	resetCodeRepo := repositories.NewResetCodeRepository(db)
	ticketRepo := repositories.NewSupportTicketRepository(db)
	contentRepo := repositories.NewContentRepository(db)

	// === Optional integrations ===
	var limiter services.IssuanceLimiter
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable at startup, issuance limiter will fail open", "error", err)
		}
		limiter = services.NewRedisIssuanceLimiter(rdb, cfg.Redis.IssuanceLimit, cfg.Redis.IssuanceWindow)
	}

	var ops services.OpsNotifier
	if cfg.Telegram.BotToken != "" {
		tg, err := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.OpsChatID)
		if err != nil {
			logger.Warn("telegram disabled", "error", err)
		} else {
			ops = tg
		}
	}

	// === Services ===
	authService := services.NewAuthService(userRepo)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.AppBaseURL,
	)
	resetService := services.NewPasswordResetService(
		userRepo,
		resetCodeRepo,
		emailService,
		authService,
		limiter,
		services.PasswordResetOptions{
			CodeTTL:           cfg.Reset.CodeTTL,
			ReissuePolicy:     cfg.Reset.ReissuePolicy,
			MinPasswordLength: cfg.Reset.MinPasswordLength,
		},
		logger,
	)
	notificationService := services.NewNotificationService(
		userRepo,
		ticketRepo,
		emailService,
		ops,
		services.NotificationOptions{
			AdminRecipients: cfg.Email.AdminRecipients,
			SupportInbox:    cfg.Email.SupportInbox,
		},
		logger,
	)
	profileService := services.NewProfileService(userRepo)
	contentService := services.NewContentService(contentRepo)

	// === Content changefeed ===
	listener, err := realtime.NewPQListener(cfg.Database.DSN, realtime.ContentChannel, logger)
	if err != nil {
		return err
	}
	feed := realtime.NewFeed(listener, logger)
	feed.Subscribe(contentService.HandleEvent)
	go func() {
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("content changefeed stopped", "error", err)
			// без фида кэш устареет, сбрасываем его
			contentService.HandleEvent(realtime.Event{Op: realtime.OpReset})
		}
	}()

	// === Gin ===
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())

	docs.SwaggerInfo.Title = "ExpertGate API"
	docs.SwaggerInfo.Version = "1.0"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtSecret := []byte(cfg.Auth.JWTSecret)
	routes.SetupRoutes(router, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, jwtSecret, cfg.Auth.AccessTokenTTL, logger),
		PasswordReset: handlers.NewPasswordResetHandler(resetService, cfg.Reset.MinPasswordLength, logger),
		Notification:  handlers.NewNotificationHandler(notificationService, logger),
		Profile:       handlers.NewProfileHandler(profileService, logger),
		Content:       handlers.NewContentHandler(contentService, logger),
		Health:        handlers.NewHealthHandler(db, logger),
	}, jwtSecret)

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
