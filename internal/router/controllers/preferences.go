package controllers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/store"
)

// PreferenceController defines the HTTP handlers for admin-popup
// preferences.
type PreferenceController struct {
	prefs store.PreferenceStore
}

// NewPreferenceController creates a new PreferenceController.
func NewPreferenceController(prefs store.PreferenceStore) *PreferenceController {
	return &PreferenceController{prefs: prefs}
}

// checksum validates and canonicalizes an address for use as a store key.
func checksum(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", errs.New(errs.KindBadAddress, "malformed address %q", s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// Set upserts the preference for the (user, faucet) pair.
func (c *PreferenceController) Set(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		UserAddress   string `json:"userAddress"`
		FaucetAddress string `json:"faucetAddress"`
		DontShow      bool   `json:"dontShow"`
	}
	if !decodeBody(rw, r, &req) {
		return
	}
	user, err := checksum(req.UserAddress)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	faucetAddr, err := checksum(req.FaucetAddress)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	if err := c.prefs.Set(r.Context(), user, faucetAddr, req.DontShow); err != nil {
		writeError(rw, r, errs.New(errs.KindCacheUnavailable, "storing preference: %s", err))
		return
	}
	writeJSON(rw, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

// Get returns the stored flag for the (user, faucet) pair; a missing
// row reads as false.
func (c *PreferenceController) Get(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user, err := checksum(vars["user"])
	if err != nil {
		writeError(rw, r, err)
		return
	}
	faucetAddr, err := checksum(vars["faucet"])
	if err != nil {
		writeError(rw, r, err)
		return
	}

	dontShow, err := c.prefs.Get(r.Context(), user, faucetAddr)
	if err != nil {
		writeError(rw, r, errs.New(errs.KindCacheUnavailable, "reading preference: %s", err))
		return
	}
	writeJSON(rw, http.StatusOK, struct {
		Success  bool `json:"success"`
		DontShow bool `json:"dontShow"`
	}{true, dontShow})
}

// List returns every preference row for a user.
func (c *PreferenceController) List(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user, err := checksum(vars["user"])
	if err != nil {
		writeError(rw, r, err)
		return
	}

	prefs, err := c.prefs.ListByUser(r.Context(), user)
	if err != nil {
		writeError(rw, r, errs.New(errs.KindCacheUnavailable, "listing preferences: %s", err))
		return
	}
	if prefs == nil {
		prefs = []store.Preference{}
	}
	writeJSON(rw, http.StatusOK, struct {
		Success     bool               `json:"success"`
		Preferences []store.Preference `json:"preferences"`
	}{true, prefs})
}
