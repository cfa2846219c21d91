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

	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/store"
)

// memPrefs is an in-memory PreferenceStore keyed by user+faucet.
type memPrefs struct {
	rows map[string]bool
	err  error
}

func newMemPrefs() *memPrefs {
	return &memPrefs{rows: map[string]bool{}}
}

func (m *memPrefs) Set(_ context.Context, user, faucetAddr string, dontShow bool) error {
	if m.err != nil {
		return m.err
	}
	m.rows[user+"/"+faucetAddr] = dontShow
	return nil
}

func (m *memPrefs) Get(_ context.Context, user, faucetAddr string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.rows[user+"/"+faucetAddr], nil
}

func (m *memPrefs) ListByUser(_ context.Context, user string) ([]store.Preference, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []store.Preference
	for key, dontShow := range m.rows {
		parts := strings.SplitN(key, "/", 2)
		if parts[0] == user {
			out = append(out, store.Preference{
				UserAddress:        parts[0],
				FaucetAddress:      parts[1],
				DontShowAdminPopup: dontShow,
			})
		}
	}
	return out, nil
}

const (
	prefUser   = "0x00000000000000000000000000000000000000Aa"
	prefFaucet = "0x00000000000000000000000000000000000000Ff"
)

func TestPreferenceSetAndGet(t *testing.T) {
	t.Parallel()

	prefs := newMemPrefs()
	controller := NewPreferenceController(prefs)

	rec := postJSON(t, controller.Set, `{
		"userAddress": "`+prefUser+`",
		"faucetAddress": "`+prefFaucet+`",
		"dontShow": true
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The stored key is the checksummed form regardless of input casing.
	req := httptest.NewRequest(http.MethodGet, "/popup-preference/u/f", nil)
	req = mux.SetURLVars(req, map[string]string{
		"user":   strings.ToLower(prefUser),
		"faucet": strings.ToLower(prefFaucet),
	})
	rec = httptest.NewRecorder()
	controller.Get(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success  bool `json:"success"`
		DontShow bool `json:"dontShow"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.DontShow)
}

func TestPreferenceSetRejectsBadAddress(t *testing.T) {
	t.Parallel()

	controller := NewPreferenceController(newMemPrefs())
	rec := postJSON(t, controller.Set, `{"userAddress": "nope", "faucetAddress": "`+prefFaucet+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, errs.KindBadAddress, body.Error.Kind)
}

func TestPreferenceListEmpty(t *testing.T) {
	t.Parallel()

	controller := NewPreferenceController(newMemPrefs())

	req := httptest.NewRequest(http.MethodGet, "/popup-preferences/u", nil)
	req = mux.SetURLVars(req, map[string]string{"user": prefUser})
	rec := httptest.NewRecorder()
	controller.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// An empty list serializes as [], never null.
	require.Contains(t, rec.Body.String(), `"preferences":[]`)
}

func TestPreferenceStoreFailure(t *testing.T) {
	t.Parallel()

	prefs := newMemPrefs()
	prefs.err = errs.New(errs.KindCacheUnavailable, "connection refused")
	controller := NewPreferenceController(prefs)

	req := httptest.NewRequest(http.MethodGet, "/popup-preference/u/f", nil)
	req = mux.SetURLVars(req, map[string]string{"user": prefUser, "faucet": prefFaucet})
	rec := httptest.NewRecorder()
	controller.Get(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
