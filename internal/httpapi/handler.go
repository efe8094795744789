// Package httpapi exposes the VIP flow as the JSON endpoints called by the
// payment page, the gateway and the Discord bot.
package httpapi

import (
	"encoding/json"
	"net/http"

	"pixvip/api/internal/metrics"
	"pixvip/api/internal/middleware"
	"pixvip/api/internal/vip"
)

const maxBodyBytes = 64 << 10

const (
	RouteCreatePix     = "/v1/pix/create"
	RouteWebhook       = "/v1/webhook"
	RouteVipAccess     = "/v1/vip/access"
	RouteValidateToken = "/v1/discord/validate-token"
	RouteHealth        = "/healthz"
	RouteMetrics       = "/metrics"
)

type Handler struct {
	svc          *vip.Service
	metrics      *metrics.Metrics
	botJWTSecret string
}

func NewHandler(svc *vip.Service, m *metrics.Metrics, botJWTSecret string) *Handler {
	return &Handler{svc: svc, metrics: m, botJWTSecret: botJWTSecret}
}

// Routes registers the public endpoints. CORS is applied by the caller around
// the whole mux. /metrics lives on the admin listener, see AdminHandler.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(RouteCreatePix, h.CreatePix)
	mux.HandleFunc(RouteWebhook, h.Webhook)
	mux.HandleFunc(RouteVipAccess, h.VipAccess)
	mux.Handle(RouteValidateToken, middleware.BotAuth(h.botJWTSecret)(http.HandlerFunc(h.ValidateToken)))
	mux.HandleFunc(RouteHealth, h.Health)
	return mux
}

// Handler returns the routes wrapped with CORS and request metrics.
func (h *Handler) Handler(corsOrigins []string) http.Handler {
	instrumented := middleware.Metrics(h.metrics,
		RouteCreatePix, RouteWebhook, RouteVipAccess, RouteValidateToken, RouteHealth,
	)(h.Routes())
	return middleware.CORS(corsOrigins)(instrumented)
}

// AdminHandler serves /metrics for the separate admin listener, behind basic
// auth when user is set. It never goes through CORS.
func (h *Handler) AdminHandler(user, password string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(RouteMetrics, middleware.BasicAuth(user, password)(h.metrics.Handler()))
	mux.HandleFunc(RouteHealth, h.Health)
	return mux
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]string{"error": code})
}
