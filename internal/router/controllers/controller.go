// Package controllers defines the HTTP handlers of the JSON surface.
// Every handler is a thin adapter: decode, validate, call one service,
// encode.
package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/pkg/errs"
)

type errorBody struct {
	Success bool        `json:"success"`
	Error   *errs.Error `json:"error"`
}

func writeJSON(rw http.ResponseWriter, status int, body interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}

func writeError(rw http.ResponseWriter, r *http.Request, err error) {
	serr := errs.From(err)
	log.Ctx(r.Context()).
		Warn().
		Err(err).
		Str("kind", string(serr.Kind)).
		Msg("request failed")
	writeJSON(rw, errs.HTTPStatus(serr.Kind), errorBody{Error: serr})
}

// decodeBody decodes the JSON request body into v, rejecting malformed
// or wrongly typed payloads with a 400 before any chain call happens.
func decodeBody(rw http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(rw, r, errs.New(errs.KindValidation, "malformed request body: %s", err))
		return false
	}
	return true
}
