package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/internal/analytics"
	"github.com/faucetdrops/backend/pkg/errs"
)

// AnalyticsController defines the HTTP handlers for the analytics cache.
type AnalyticsController struct {
	aggregator *analytics.Aggregator
}

// NewAnalyticsController creates a new AnalyticsController.
func NewAnalyticsController(aggregator *analytics.Aggregator) *AnalyticsController {
	return &AnalyticsController{aggregator: aggregator}
}

var analyticsKeys = map[string]string{
	"dashboard":    analytics.KeyDashboard,
	"faucets":      analytics.KeyFaucets,
	"transactions": analytics.KeyTransactions,
	"users":        analytics.KeyUsers,
	"claims":       analytics.KeyClaims,
	"status":       analytics.KeyUpdateStatus,
}

// Update triggers an aggregation run in the background. A run already in
// flight is reported, not duplicated.
func (c *AnalyticsController) Update(rw http.ResponseWriter, r *http.Request) {
	if c.aggregator.Running() {
		writeJSON(rw, http.StatusOK, struct {
			Success bool   `json:"success"`
			Status  string `json:"status"`
		}{true, "in_progress"})
		return
	}

	// The run outlives the request; it must not inherit its context.
	go func() {
		if err := c.aggregator.Run(context.Background()); err != nil && !errors.Is(err, analytics.ErrUpdateInProgress) {
			log.Error().Err(err).Msg("analytics update failed")
		}
	}()

	writeJSON(rw, http.StatusOK, struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}{true, "started"})
}

// Get serves one cached analytics document.
func (c *AnalyticsController) Get(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key, ok := analyticsKeys[vars["key"]]
	if !ok {
		writeError(rw, r, errs.New(errs.KindNotFound, "unknown analytics key %q", vars["key"]))
		return
	}

	doc, updatedAt, err := c.aggregator.Read(r.Context(), key)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, struct {
		Success   bool            `json:"success"`
		Data      json.RawMessage `json:"data"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}{true, doc, updatedAt})
}
