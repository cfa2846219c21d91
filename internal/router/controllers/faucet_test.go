package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/internal/faucet"
	"github.com/faucetdrops/backend/pkg/dropcode"
	"github.com/faucetdrops/backend/pkg/errs"
)

const testTxHash = "0x1111111111111111111111111111111111111111111111111111111111111111"

// fakeService returns canned results and records the last request seen.
type fakeService struct {
	err      error
	metadata faucet.CodeMetadata
	reason   dropcode.VerifyReason

	lastClaim faucet.ClaimRequest
}

func (s *fakeService) Claim(_ context.Context, req faucet.ClaimRequest) (string, error) {
	s.lastClaim = req
	return testTxHash, s.err
}

func (s *fakeService) ClaimNoCode(_ context.Context, req faucet.ClaimRequest) (string, error) {
	s.lastClaim = req
	return testTxHash, s.err
}

func (s *fakeService) ClaimCustom(_ context.Context, req faucet.ClaimRequest) (string, error) {
	s.lastClaim = req
	return testTxHash, s.err
}

func (s *fakeService) Whitelist(context.Context, string, string, string, chains.ChainID) (string, error) {
	return testTxHash, s.err
}

func (s *fakeService) SetClaimParameters(context.Context, faucet.SetClaimParametersRequest) (faucet.SetClaimParametersResult, error) {
	return faucet.SetClaimParametersResult{SecretCode: "A1B2C3", TasksStored: true}, s.err
}

func (s *fakeService) RotateDropCode(context.Context, string, string, chains.ChainID) (string, error) {
	return "D4E5F6", s.err
}

func (s *fakeService) GetCodeMetadata(context.Context, string) (faucet.CodeMetadata, error) {
	return s.metadata, s.err
}

func (s *fakeService) VerifyCode(context.Context, string, string) (dropcode.VerifyReason, error) {
	return s.reason, s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestClaim(t *testing.T) {
	t.Parallel()

	service := &fakeService{}
	controller := NewFaucetController(service)

	rec := postJSON(t, controller.Claim, `{
		"userAddress": "0x00000000000000000000000000000000000000aa",
		"faucetAddress": "0x00000000000000000000000000000000000000ff",
		"secretCode": "A1B2C3",
		"chainId": 42220
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body claimResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, testTxHash, body.TxHash)
	require.Equal(t, "A1B2C3", service.lastClaim.SecretCode)
	require.Equal(t, chains.ChainID(42220), service.lastClaim.ChainID)
}

func TestClaimErrorMapping(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name       string
		err        error
		wantStatus int
	}

	tests := []testCase{
		{"expired code", errs.New(errs.KindCodeExpired, "drop code expired"), http.StatusBadRequest},
		{"unauthorized", errs.New(errs.KindUnauthorized, "not authorized"), http.StatusForbidden},
		{"not found", errs.New(errs.KindNotFound, "no drop code"), http.StatusNotFound},
		{"internal", errs.New(errs.KindInternal, "boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			controller := NewFaucetController(&fakeService{err: tc.err})
			rec := postJSON(t, controller.Claim, `{"chainId": 42220}`)
			require.Equal(t, tc.wantStatus, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.False(t, body.Success)
			require.Equal(t, errs.From(tc.err).Kind, body.Error.Kind)
		})
	}
}

func TestClaimMalformedBody(t *testing.T) {
	t.Parallel()

	controller := NewFaucetController(&fakeService{})
	rec := postJSON(t, controller.Claim, `{"chainId": "not a number"`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, errs.KindValidation, body.Error.Kind)
}

func TestSetClaimParameters(t *testing.T) {
	t.Parallel()

	controller := NewFaucetController(&fakeService{})
	rec := postJSON(t, controller.SetClaimParameters, `{
		"faucetAddress": "0x00000000000000000000000000000000000000ff",
		"startTime": 100,
		"endTime": 200,
		"chainId": 42220,
		"tasks": [{"title": "follow"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success     bool   `json:"success"`
		SecretCode  string `json:"secretCode"`
		TasksStored bool   `json:"tasksStored"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "A1B2C3", body.SecretCode)
	require.True(t, body.TasksStored)
}

func TestRotateDropCode(t *testing.T) {
	t.Parallel()

	controller := NewFaucetController(&fakeService{})
	rec := postJSON(t, controller.RotateDropCode, `{
		"faucetAddress": "0x00000000000000000000000000000000000000ff",
		"userAddress": "0x00000000000000000000000000000000000000cc",
		"chainId": 42220
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success    bool   `json:"success"`
		SecretCode string `json:"secretCode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "D4E5F6", body.SecretCode)
}

func TestGetSecretCode(t *testing.T) {
	t.Parallel()

	controller := NewFaucetController(&fakeService{metadata: faucet.CodeMetadata{
		FaucetAddress: "0x00000000000000000000000000000000000000ff",
		SecretCode:    "A1B2C3",
		IsValid:       true,
	}})

	req := httptest.NewRequest(http.MethodGet, "/secret-code/0xff", nil)
	req = mux.SetURLVars(req, map[string]string{"faucet": "0xff"})
	rec := httptest.NewRecorder()
	controller.GetSecretCode(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		faucet.CodeMetadata
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "A1B2C3", body.SecretCode)
	require.True(t, body.IsValid)
}

func TestVerifyCode(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		controller := NewFaucetController(&fakeService{reason: dropcode.ReasonValid})
		rec := postJSON(t, controller.VerifyCode, `{"faucetAddress": "0xff", "code": "A1B2C3"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Success bool   `json:"success"`
			IsValid bool   `json:"isValid"`
			Reason  string `json:"reason"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.True(t, body.IsValid)
		require.Equal(t, "valid", body.Reason)
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()

		controller := NewFaucetController(&fakeService{reason: dropcode.ReasonMismatch})
		rec := postJSON(t, controller.VerifyCode, `{"faucetAddress": "0xff", "code": "WRONG1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			IsValid bool   `json:"isValid"`
			Reason  string `json:"reason"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.False(t, body.IsValid)
		require.Equal(t, "code_mismatch", body.Reason)
	})
}
