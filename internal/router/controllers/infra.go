package controllers

import (
	"net/http"

	"github.com/faucetdrops/backend/buildinfo"
)

// InfraController defines the HTTP handlers for infrastructure APIs.
type InfraController struct {
}

// NewInfraController creates a new InfraController.
func NewInfraController() *InfraController {
	return &InfraController{}
}

// Version returns git information of the running binary.
func (c *InfraController) Version(rw http.ResponseWriter, r *http.Request) {
	summary := buildinfo.GetSummary()
	writeJSON(rw, http.StatusOK, summary)
}
