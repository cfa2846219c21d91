// Package faucet defines the relayer service: gasless faucet operations
// executed on behalf of users by the operator wallet, gated by drop codes
// and on-chain checks.
package faucet

import (
	"context"
	"encoding/json"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/pkg/dropcode"
)

// ClaimRequest is the payload shared by the claim variants.
type ClaimRequest struct {
	UserAddress       string         `json:"userAddress"`
	FaucetAddress     string         `json:"faucetAddress"`
	SecretCode        string         `json:"secretCode"`
	ChainID           chains.ChainID `json:"chainId"`
	ShouldWhitelist   bool           `json:"shouldWhitelist"`
	DivviReferralData string         `json:"divviReferralData"`
}

// SetClaimParametersRequest configures a faucet's claim round. The
// on-chain setClaimParameters call is made directly by the admin's own
// wallet; the backend only mints and stores the drop code, and persists
// the optional tasks payload.
type SetClaimParametersRequest struct {
	FaucetAddress string          `json:"faucetAddress"`
	ClaimAmount   json.Number     `json:"claimAmount"`
	StartTime     int64           `json:"startTime"`
	EndTime       int64           `json:"endTime"`
	ChainID       chains.ChainID  `json:"chainId"`
	Tasks         json.RawMessage `json:"tasks,omitempty"`
}

// SetClaimParametersResult carries the minted code.
type SetClaimParametersResult struct {
	SecretCode  string `json:"secretCode"`
	TasksStored bool   `json:"tasksStored"`
}

// CodeMetadata describes a faucet's drop code and window state at read
// time.
type CodeMetadata struct {
	FaucetAddress string `json:"faucetAddress"`
	SecretCode    string `json:"secretCode"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
	IsValid       bool   `json:"isValid"`
	IsExpired     bool   `json:"isExpired"`
	IsFuture      bool   `json:"isFuture"`
	TimeRemaining int64  `json:"timeRemaining"`
}

// Service is the faucet relayer. Every method validates its inputs in
// declared order and reports the first failing precondition; no
// transaction is broadcast when a precondition fails.
type Service interface {
	// Claim relays a coded claim: the drop code must verify.
	Claim(ctx context.Context, req ClaimRequest) (txHash string, err error)
	// ClaimNoCode relays a claim without the code gate.
	ClaimNoCode(ctx context.Context, req ClaimRequest) (txHash string, err error)
	// ClaimCustom relays a claim for users with a per-user amount set.
	ClaimCustom(ctx context.Context, req ClaimRequest) (txHash string, err error)
	// Whitelist sets the user's whitelist flag. The admin must be
	// authorized for the faucet.
	Whitelist(ctx context.Context, adminAddress, userAddress, faucetAddress string, chainID chains.ChainID) (txHash string, err error)
	// SetClaimParameters mints and stores a fresh drop code for the window.
	SetClaimParameters(ctx context.Context, req SetClaimParametersRequest) (SetClaimParametersResult, error)
	// RotateDropCode swaps the faucet's code value, preserving the window
	// semantics of rotation. The caller must be authorized for the faucet.
	RotateDropCode(ctx context.Context, faucetAddress, userAddress string, chainID chains.ChainID) (code string, err error)
	// GetCodeMetadata reads a faucet's stored code and validity flags.
	GetCodeMetadata(ctx context.Context, faucetAddress string) (CodeMetadata, error)
	// VerifyCode checks a candidate code without relaying anything.
	VerifyCode(ctx context.Context, faucetAddress, candidate string) (dropcode.VerifyReason, error)
}
