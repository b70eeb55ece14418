package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jaylondental/clinic-api/cmd/mainconfig"
	"github.com/jaylondental/clinic-api/internal/api/router"
	"github.com/jaylondental/clinic-api/internal/appointments"
	"github.com/jaylondental/clinic-api/internal/auth"
	appconfig "github.com/jaylondental/clinic-api/internal/config"
	"github.com/jaylondental/clinic-api/internal/dashboard"
	"github.com/jaylondental/clinic-api/internal/gallery"
	"github.com/jaylondental/clinic-api/internal/notify"
	"github.com/jaylondental/clinic-api/internal/observability/metrics"
	"github.com/jaylondental/clinic-api/internal/schedule"
	"github.com/jaylondental/clinic-api/internal/services"
	"github.com/jaylondental/clinic-api/internal/storage"
	"github.com/jaylondental/clinic-api/internal/sweeper"
	"github.com/jaylondental/clinic-api/internal/users"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic API server", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create db pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping db", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to ping redis", "error", err)
		os.Exit(1)
	}
	sessions := auth.NewStore(redisClient, cfg.SessionTTL)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	objects := storage.NewS3Store(storage.S3StoreConfig{
		Client: s3.NewFromConfig(awsCfg),
		Bucket: cfg.ImageBucket,
		Logger: logger,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "ses":
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.ClinicName,
		}, logger)
	case "sendgrid":
		sender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
	if sender == nil {
		logger.Warn("no email provider configured, emails will only be logged")
	}
	mailer := notify.NewMailer(sender, cfg.ClinicName, cfg.ClinicEmail, bookingMetrics, logger)

	hours := weeklyHours(cfg, logger)

	usersRepo := users.NewRepository(pool)
	servicesRepo := services.NewRepository(pool)
	appointmentsRepo := appointments.NewRepository(pool)
	galleryRepo := gallery.NewRepository(pool)

	sweep := sweeper.New(sweeper.Config{
		Appointments: appointmentsRepo,
		Users:        usersRepo,
		Services:     servicesRepo,
		Mailer:       mailer,
		Metrics:      bookingMetrics,
		Interval:     cfg.SweepInterval,
		Logger:       logger,
	})
	go sweep.Run(ctx)

	r := router.New(&router.Config{
		Logger:              logger,
		Sessions:            sessions,
		AppointmentsHandler: appointments.NewHandler(appointmentsRepo, servicesRepo, hours, bookingMetrics, logger),
		ServicesHandler:     services.NewHandler(servicesRepo, objects, logger),
		GalleryHandler:      gallery.NewHandler(galleryRepo, objects, logger),
		UsersHandler:        users.NewHandler(usersRepo, mailer, sessions, cfg.PublicBaseURL, logger),
		ContactHandler:      notify.NewContactHandler(mailer, logger),
		DashboardHandler:    dashboard.NewHandler(dashboard.NewService(pool), logger),
		SweepHandler:        sweeper.NewHandler(sweep, cfg.SweepToken),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// weeklyHours builds the operating hours from config, falling back to the
// posted defaults on parse errors.
func weeklyHours(cfg *appconfig.Config, logger *logging.Logger) schedule.WeeklyHours {
	hours := schedule.DefaultWeeklyHours()
	hours.ShortDay = cfg.ShortDay

	parse := func(value string, dst *schedule.ClockTime) {
		if value == "" {
			return
		}
		ct, err := schedule.ParseClockTime(value)
		if err != nil {
			logger.Warn("invalid operating hours value, using default", "value", value, "error", err)
			return
		}
		*dst = ct
	}
	parse(cfg.ShortDayOpen, &hours.ShortOpen)
	parse(cfg.ShortDayClose, &hours.ShortClose)
	parse(cfg.RegularOpen, &hours.RegularOpen)
	parse(cfg.RegularClose, &hours.RegularClose)
	return hours
}
