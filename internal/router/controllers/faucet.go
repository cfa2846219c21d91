package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/internal/faucet"
	"github.com/faucetdrops/backend/pkg/dropcode"
)

// FaucetController defines the HTTP handlers for the relayer operations.
type FaucetController struct {
	service faucet.Service
}

// NewFaucetController creates a new FaucetController.
func NewFaucetController(service faucet.Service) *FaucetController {
	return &FaucetController{service: service}
}

type claimResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash"`
}

// Claim relays the coded claim variant.
func (c *FaucetController) Claim(rw http.ResponseWriter, r *http.Request) {
	var req faucet.ClaimRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	hash, err := c.service.Claim(r.Context(), req)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, claimResponse{Success: true, TxHash: hash})
}

// ClaimNoCode relays the codeless claim variant.
func (c *FaucetController) ClaimNoCode(rw http.ResponseWriter, r *http.Request) {
	var req faucet.ClaimRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	hash, err := c.service.ClaimNoCode(r.Context(), req)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, claimResponse{Success: true, TxHash: hash})
}

// ClaimCustom relays the custom-amount claim variant.
func (c *FaucetController) ClaimCustom(rw http.ResponseWriter, r *http.Request) {
	var req faucet.ClaimRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	hash, err := c.service.ClaimCustom(r.Context(), req)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, claimResponse{Success: true, TxHash: hash})
}

// Whitelist sets the whitelist flag for a user after the on-chain
// authorization check.
func (c *FaucetController) Whitelist(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminAddress  string         `json:"adminAddress"`
		UserAddress   string         `json:"userAddress"`
		FaucetAddress string         `json:"faucetAddress"`
		ChainID       chains.ChainID `json:"chainId"`
	}
	if !decodeBody(rw, r, &req) {
		return
	}
	hash, err := c.service.Whitelist(r.Context(), req.AdminAddress, req.UserAddress, req.FaucetAddress, req.ChainID)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, claimResponse{Success: true, TxHash: hash})
}

// SetClaimParameters mints and stores a fresh drop code for a round.
func (c *FaucetController) SetClaimParameters(rw http.ResponseWriter, r *http.Request) {
	var req faucet.SetClaimParametersRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	result, err := c.service.SetClaimParameters(r.Context(), req)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, struct {
		Success     bool   `json:"success"`
		SecretCode  string `json:"secretCode"`
		TasksStored bool   `json:"tasksStored"`
	}{true, result.SecretCode, result.TasksStored})
}

// RotateDropCode replaces the faucet's code with a fresh one.
func (c *FaucetController) RotateDropCode(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		FaucetAddress string         `json:"faucetAddress"`
		UserAddress   string         `json:"userAddress"`
		ChainID       chains.ChainID `json:"chainId"`
	}
	if !decodeBody(rw, r, &req) {
		return
	}
	code, err := c.service.RotateDropCode(r.Context(), req.FaucetAddress, req.UserAddress, req.ChainID)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, struct {
		Success    bool   `json:"success"`
		SecretCode string `json:"secretCode"`
	}{true, code})
}

// GetSecretCode returns the stored code with its validity flags.
func (c *FaucetController) GetSecretCode(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	metadata, err := c.service.GetCodeMetadata(r.Context(), vars["faucet"])
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, struct {
		Success bool `json:"success"`
		faucet.CodeMetadata
	}{true, metadata})
}

// VerifyCode checks a candidate code without relaying anything.
func (c *FaucetController) VerifyCode(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		FaucetAddress string `json:"faucetAddress"`
		Code          string `json:"code"`
	}
	if !decodeBody(rw, r, &req) {
		return
	}
	reason, err := c.service.VerifyCode(r.Context(), req.FaucetAddress, req.Code)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, struct {
		Success bool   `json:"success"`
		IsValid bool   `json:"isValid"`
		Reason  string `json:"reason"`
	}{true, reason == dropcode.ReasonValid, string(reason)})
}
