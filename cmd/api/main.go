package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"academicevents/config"
	_ "academicevents/docs"
	"academicevents/internal/adapters/auth"
	"academicevents/internal/adapters/email"
	"academicevents/internal/adapters/queue"
	httpdelivery "academicevents/internal/delivery/http"
	"academicevents/internal/delivery/http/controllers"
	"academicevents/internal/delivery/http/middleware"
	"academicevents/internal/domain"
	"academicevents/internal/repository/postgres"
	"academicevents/internal/services"

	_ "github.com/lib/pq"
)

const emailBuffer = 256

// @title Academic Events API
// @version 1.0
// @description Academic event management: catalogue, registrations, attendance, certificates and organizer dashboards.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("ping database: %v", err)
	}
	cancelPing()
	logger.Info("connected to database")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	certificateRepo := postgres.NewCertificateRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	statsRepo := postgres.NewStatsRepository(db)
	profileRepo := postgres.NewProfileRepository(db)

	// Email delivery
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	var dispatcher domain.EmailDispatcher
	var closeDispatcher func()
	switch cfg.Email.Dispatch {
	case "rabbitmq":
		publisher := queue.NewRabbitPublisher(queue.RabbitConfig{
			URL:    cfg.Email.RabbitMQURL,
			Queue:  cfg.Email.Queue,
			Buffer: emailBuffer,
		}, logger)
		dispatcher = publisher
		consumerDone := make(chan struct{})
		go func() {
			defer close(consumerDone)
			queue.RunEmailConsumer(runCtx, cfg.Email.RabbitMQURL, cfg.Email.Queue, emailService, logger)
		}()
		closeDispatcher = func() {
			publisher.Close()
			stopConsumers()
			<-consumerDone
		}
		logger.Info("email dispatch via rabbitmq", "queue", cfg.Email.Queue)
	default:
		inProcess := queue.NewInProcessDispatcher(emailService, cfg.Email.Workers, emailBuffer, logger)
		dispatcher, closeDispatcher = inProcess, inProcess.Close
		logger.Info("email dispatch in process", "workers", cfg.Email.Workers)
	}

	// Credentials
	hasher := auth.NewBcryptHasher(0)
	tokens := auth.NewJWTAuthenticator(cfg.JWTSecret)

	// Services
	timeout := cfg.ContextTimeout
	activity := services.NewActivityLogger(activityRepo, logger)
	notificationService := services.NewNotificationService(notificationRepo, timeout)
	authService := services.NewAuthService(userRepo, roleRepo, hasher, tokens, cfg.JWTExpiry, activity, dispatcher, logger, timeout)
	eventService := services.NewEventService(eventRepo, sessionRepo, categoryRepo, registrationRepo, activity, logger, timeout)
	registrationService := services.NewRegistrationService(registrationRepo, eventRepo, sessionRepo, certificateRepo, userRepo, notificationService, dispatcher, logger, timeout)
	profileService := services.NewProfileService(userRepo, roleRepo, profileRepo, activityRepo, hasher, activity, notificationService, logger, timeout)
	certificateService := services.NewCertificateService(certificateRepo, timeout)
	dashboardService := services.NewDashboardService(statsRepo, eventRepo, activityRepo, timeout)

	// Rate limiting is skipped when Redis is unreachable.
	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		if client := config.NewRedisClient(cfg.Redis); client != nil {
			defer client.Close()
			limiter = middleware.NewRedisLimiter(client, cfg.RateLimit)
		} else {
			logger.Warn("redis unreachable, rate limiting disabled", "addr", cfg.Redis.Addr)
		}
	}

	mux := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:         controllers.NewAuthController(logger, authService),
		Event:        controllers.NewEventController(logger, eventService),
		Registration: controllers.NewRegistrationController(logger, registrationService),
		Profile:      controllers.NewProfileController(logger, profileService),
		Notification: controllers.NewNotificationController(logger, notificationService),
		Certificate:  controllers.NewCertificateController(logger, certificateService),
		Dashboard:    controllers.NewDashboardController(logger, dashboardService),
		Health:       controllers.NewHealthController(logger, db),
	}, httpdelivery.RouterConfig{
		Verifier:  tokens,
		Limiter:   limiter,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpdelivery.NewHandler(mux, cfg.AllowedOrigins, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	// requests are drained, so no new jobs arrive while the queue empties
	closeDispatcher()
	logger.Info("server stopped")
}
