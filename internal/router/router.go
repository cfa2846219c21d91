// Package router assembles the HTTP surface of the backend.
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/faucetdrops/backend/internal/analytics"
	"github.com/faucetdrops/backend/internal/faucet"
	"github.com/faucetdrops/backend/internal/router/controllers"
	"github.com/faucetdrops/backend/internal/router/middlewares"
	"github.com/faucetdrops/backend/internal/sweeper"
	"github.com/faucetdrops/backend/pkg/store"
)

// ConfiguredRouter returns a fully configured Router that can be used as
// an http handler.
func ConfiguredRouter(
	faucetService faucet.Service,
	sweepService *sweeper.Sweeper,
	aggregator *analytics.Aggregator,
	prefs store.PreferenceStore,
	allowedOrigins []string,
	maxRPI uint64,
	rateLimInterval time.Duration,
) (*Router, error) {
	faucetController := controllers.NewFaucetController(faucetService)
	sweeperController := controllers.NewSweeperController(sweepService)
	analyticsController := controllers.NewAnalyticsController(aggregator)
	preferenceController := controllers.NewPreferenceController(prefs)
	infraController := controllers.NewInfraController()

	router := NewRouter()
	router.Use(middlewares.CORS(allowedOrigins), middlewares.TraceID)

	rateLim, err := middlewares.RateLimitController(middlewares.RateLimiterConfig{
		MaxRPI:   maxRPI,
		Interval: rateLimInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("creating rate limit controller middleware: %s", err)
	}

	// Relayer operations.
	router.Post("/claim", faucetController.Claim, middlewares.WithLogging, middlewares.WithMetrics("Claim"), rateLim)
	router.Post("/claim-no-code", faucetController.ClaimNoCode, middlewares.WithLogging, middlewares.WithMetrics("ClaimNoCode"), rateLim)
	router.Post("/claim-custom", faucetController.ClaimCustom, middlewares.WithLogging, middlewares.WithMetrics("ClaimCustom"), rateLim)
	router.Post("/whitelist", faucetController.Whitelist, middlewares.WithLogging, middlewares.WithMetrics("Whitelist"), rateLim)

	// Drop code management.
	router.Post("/set-claim-parameters", faucetController.SetClaimParameters, middlewares.WithLogging, middlewares.WithMetrics("SetClaimParameters"), rateLim)
	router.Post("/generate-new-drop-code", faucetController.RotateDropCode, middlewares.WithLogging, middlewares.WithMetrics("RotateDropCode"), rateLim)
	router.Get("/secret-code/{faucet}", faucetController.GetSecretCode, middlewares.WithLogging, middlewares.WithMetrics("GetSecretCode"), rateLim)
	router.Post("/verify-code", faucetController.VerifyCode, middlewares.WithLogging, middlewares.WithMetrics("VerifyCode"), rateLim)

	// USDT sweeper.
	router.Post("/check-and-transfer-usdt", sweeperController.CheckAndTransfer, middlewares.WithLogging, middlewares.WithMetrics("CheckAndTransfer"), rateLim)
	router.Post("/check-and-transfer-usdt-bulk", sweeperController.CheckAndTransferBulk, middlewares.WithLogging, middlewares.WithMetrics("CheckAndTransferBulk"), rateLim)

	// Analytics cache.
	router.Post("/analytics/update", analyticsController.Update, middlewares.WithLogging, middlewares.WithMetrics("AnalyticsUpdate"), rateLim)
	router.Get("/analytics/{key}", analyticsController.Get, middlewares.WithLogging, middlewares.WithMetrics("AnalyticsGet"), rateLim)

	// Admin popup preferences.
	router.Post("/popup-preference", preferenceController.Set, middlewares.WithLogging, middlewares.WithMetrics("SetPreference"), rateLim)
	router.Get("/popup-preference/{user}/{faucet}", preferenceController.Get, middlewares.WithLogging, middlewares.WithMetrics("GetPreference"), rateLim)
	router.Get("/popup-preferences/{user}", preferenceController.List, middlewares.WithLogging, middlewares.WithMetrics("ListPreferences"), rateLim)

	router.Get("/version", infraController.Version, middlewares.WithLogging, middlewares.WithMetrics("Version"), rateLim)

	// Health endpoint configuration.
	router.Get("/healthz", healthHandler)
	router.Get("/health", healthHandler)

	return router, nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Router provides a nice api around mux.Router.
type Router struct {
	r *mux.Router
}

// NewRouter is a Mux HTTP router constructor.
func NewRouter() *Router {
	r := mux.NewRouter()
	r.PathPrefix("/").Methods(http.MethodOptions) // accept OPTIONS on all routes and do nothing
	return &Router{r: r}
}

// Get creates a subroute on the specified URI that only accepts GET. You can provide specific middlewares.
func (r *Router) Get(uri string, f func(http.ResponseWriter, *http.Request), mid ...mux.MiddlewareFunc) {
	sub := r.r.Path(uri).Subrouter()
	sub.HandleFunc("", f).Methods(http.MethodGet)
	sub.Use(mid...)
}

// Post creates a subroute on the specified URI that only accepts POST. You can provide specific middlewares.
func (r *Router) Post(uri string, f func(http.ResponseWriter, *http.Request), mid ...mux.MiddlewareFunc) {
	sub := r.r.Path(uri).Subrouter()
	sub.HandleFunc("", f).Methods(http.MethodPost)
	sub.Use(mid...)
}

// Use adds middlewares to all routes. Should be used when a middleware should be execute all all routes (e.g. CORS).
func (r *Router) Use(mid ...mux.MiddlewareFunc) {
	r.r.Use(mid...)
}

// Handler returns the configured router http handler.
func (r *Router) Handler() http.Handler {
	return r.r
}
