package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"StagePasswebserver/internal/auth"
	"StagePasswebserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth        *service.AuthService
	Devices     *service.DeviceService
	Preferences *service.PreferenceService
	Inbox       *service.InboxService
	Delivery    *service.DeliveryService

	CookieCodec auth.CookieCodec

	// InternalAPIKeyHash guards the schedule-publisher endpoint. Empty means
	// the endpoint is disabled.
	InternalAPIKeyHash string
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:          logger,
		isProd:          opts.IsProd,
		dbPing:          opts.DBPing,
		authSvc:         opts.Auth,
		deviceSvc:       opts.Devices,
		prefSvc:         opts.Preferences,
		inboxSvc:        opts.Inbox,
		deliverySvc:     opts.Delivery,
		cookieCodec:     opts.CookieCodec,
		internalKeyHash: opts.InternalAPIKeyHash,
		registerLimiter: newIPRateLimiter(1, 10),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.deviceSvc != nil {
		apiMux.HandleFunc("POST /v1/devices", api.rateLimitByIP(api.requireAuth(api.handleDevicesRegister)))
		apiMux.HandleFunc("GET /v1/devices", api.requireAuth(api.handleDevicesList))
		apiMux.HandleFunc("DELETE /v1/devices/token", api.handleDevicesUnregisterByToken)
		apiMux.HandleFunc("DELETE /v1/devices/{id}", api.requireAuth(api.handleDevicesUnregister))
	}

	if api.prefSvc != nil {
		apiMux.HandleFunc("GET /v1/notifications/preferences", api.requireAuth(api.handlePreferencesGet))
		apiMux.HandleFunc("PATCH /v1/notifications/preferences", api.requireAuth(api.handlePreferencesUpdate))
	}

	if api.inboxSvc != nil {
		apiMux.HandleFunc("GET /v1/notifications", api.requireAuth(api.handleNotificationsList))
		apiMux.HandleFunc("GET /v1/notifications/unread-count", api.requireAuth(api.handleNotificationsUnreadCount))
		apiMux.HandleFunc("POST /v1/notifications/read-all", api.requireAuth(api.handleNotificationsReadAll))
		apiMux.HandleFunc("POST /v1/notifications/{id}/read", api.requireAuth(api.handleNotificationsMarkRead))
	}

	if api.deliverySvc != nil && api.internalKeyHash != "" {
		apiMux.HandleFunc("POST /v1/internal/schedule-changes", api.requireAPIKey(api.handleScheduleChange))
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc     *service.AuthService
	deviceSvc   *service.DeviceService
	prefSvc     *service.PreferenceService
	inboxSvc    *service.InboxService
	deliverySvc *service.DeliveryService

	cookieCodec     auth.CookieCodec
	internalKeyHash string

	registerLimiter *ipRateLimiter
}

func (a *api) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
