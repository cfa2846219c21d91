package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/internal/sweeper"
)

// SweeperController defines the HTTP handlers for the USDT sweep flows.
type SweeperController struct {
	service *sweeper.Sweeper
}

// NewSweeperController creates a new SweeperController.
func NewSweeperController(service *sweeper.Sweeper) *SweeperController {
	return &SweeperController{service: service}
}

type sweepBody struct {
	UserAddress         string           `json:"userAddress"`
	ToAddress           string           `json:"toAddress"`
	TransferAmount      *decimal.Decimal `json:"transferAmount,omitempty"`
	ThresholdAmount     decimal.Decimal  `json:"thresholdAmount"`
	USDTContractAddress string           `json:"usdtContractAddress"`
	ChainID             chains.ChainID   `json:"chainId"`
}

func (b sweepBody) request() sweeper.Request {
	return sweeper.Request{
		UserAddress:     b.UserAddress,
		ToAddress:       b.ToAddress,
		Amount:          b.TransferAmount,
		Threshold:       b.ThresholdAmount,
		ContractAddress: b.USDTContractAddress,
		ChainID:         b.ChainID,
	}
}

// The sweep responses keep the snake_case field names the frontend
// consumes.
type sweepResponse struct {
	Success           bool   `json:"success"`
	Balance           string `json:"balance"`
	BelowThreshold    bool   `json:"below_threshold"`
	TransferTriggered bool   `json:"transfer_triggered"`
	TxHash            string `json:"tx_hash,omitempty"`
	Message           string `json:"message,omitempty"`
}

// CheckAndTransfer runs the per-user sweep flow.
func (c *SweeperController) CheckAndTransfer(rw http.ResponseWriter, r *http.Request) {
	var body sweepBody
	if !decodeBody(rw, r, &body) {
		return
	}
	res, err := c.service.Sweep(r.Context(), body.request())
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, sweepResponse{
		Success:           true,
		Balance:           res.Balance.String(),
		BelowThreshold:    res.BelowThreshold,
		TransferTriggered: res.TransferTriggered,
		TxHash:            res.TxHash,
		Message:           res.Message,
	})
}

// CheckAndTransferBulk runs the sweep flow per user, continuing on
// individual failures.
func (c *SweeperController) CheckAndTransferBulk(rw http.ResponseWriter, r *http.Request) {
	var body struct {
		sweepBody
		Users []string `json:"users"`
	}
	if !decodeBody(rw, r, &body) {
		return
	}
	entries := c.service.SweepBulk(r.Context(), body.Users, body.request())
	writeJSON(rw, http.StatusOK, struct {
		Success bool                `json:"success"`
		Results []sweeper.BulkEntry `json:"results"`
	}{true, entries})
}
