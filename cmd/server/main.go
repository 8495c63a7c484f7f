package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"golang.org/x/time/rate"

	"StagePasswebserver/internal/auth"
	"StagePasswebserver/internal/config"
	"StagePasswebserver/internal/email"
	"StagePasswebserver/internal/httpapi"
	"StagePasswebserver/internal/notifications"
	"StagePasswebserver/internal/service"
	"StagePasswebserver/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc     *service.AuthService
		deviceSvc   *service.DeviceService
		prefSvc     *service.PreferenceService
		inboxSvc    *service.InboxService
		deliverySvc *service.DeliveryService
		dbPing      func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN, 0)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		devices := postgres.NewDeviceTokensStore(pgPool)
		prefs := postgres.NewPreferencesStore(pgPool)
		logs := postgres.NewNotificationLogsStore(pgPool)
		schedules := postgres.NewPersonalSchedulesStore(pgPool)

		authSvc = &service.AuthService{
			Users:    users,
			Sessions: sessions,
		}
		deviceSvc = &service.DeviceService{
			Devices: devices,
			Logger:  logger,
		}
		prefSvc = &service.PreferenceService{
			Prefs:  prefs,
			Logger: logger,
		}
		inboxSvc = &service.InboxService{Logs: logs}

		var sender notifications.PushSender
		if cfg.FCMProjectID != "" {
			fcm, err := notifications.NewFCMSender(context.Background(), cfg.FCMProjectID, cfg.FCMCredentials)
			if err != nil {
				logger.Error("fcm init failed", "err", err)
				os.Exit(1)
			}
			sender = fcm
		} else {
			logger.Warn("push delivery disabled: APP_FCM_PROJECT_ID not set")
		}

		if sender != nil {
			var limiter *rate.Limiter
			if cfg.PushRate > 0 {
				limiter = rate.NewLimiter(rate.Limit(cfg.PushRate), cfg.PushBurst)
			}
			deliverySvc = &service.DeliveryService{
				Devices: devices,
				Prefs:   prefSvc,
				Audience: &service.AudienceService{
					Schedules: schedules,
					PageSize:  cfg.AudiencePageSize,
				},
				Logs:      logs,
				Sender:    sender,
				Limiter:   limiter,
				BatchSize: cfg.NotifyBatchSize,
				Logger:    logger,
			}
			if cfg.SMTPHost != "" {
				deliverySvc.Email = &email.Sender{
					Settings: email.SMTPSettings{
						Host:     cfg.SMTPHost,
						Port:     cfg.SMTPPort,
						Username: cfg.SMTPUsername,
						Password: cfg.SMTPPassword,
						TLSMode:  cfg.SMTPTLSMode,
					},
					FromName:  cfg.EmailFromName,
					FromEmail: cfg.EmailFrom,
				}
				deliverySvc.Users = users
			}
		}

		dbPing = pgPool.Ping
	}

	apiRouter := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:             logger,
		IsProd:             cfg.IsProd(),
		DBPing:             dbPing,
		Auth:               authSvc,
		Devices:            deviceSvc,
		Preferences:        prefSvc,
		Inbox:              inboxSvc,
		Delivery:           deliverySvc,
		CookieCodec:        auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		InternalAPIKeyHash: cfg.InternalAPIKeyHash,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
