// Package errs defines the error taxonomy shared by the relayer services
// and the HTTP surface. Every user-visible failure carries a Kind that maps
// deterministically to an HTTP status code.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of service failure.
type Kind string

// The full set of failure kinds surfaced by the backend.
const (
	KindBadAddress               Kind = "BadAddress"
	KindValidation               Kind = "ValidationError"
	KindUnsupportedChain         Kind = "UnsupportedChain"
	KindRpcUnavailable           Kind = "RpcUnavailable"
	KindInsufficientRelayerFunds Kind = "InsufficientRelayerFunds"
	KindCodeMissing              Kind = "CodeMissing"
	KindCodeInvalid              Kind = "CodeInvalid"
	KindCodeExpired              Kind = "CodeExpired"
	KindCodeFuture               Kind = "CodeFuture"
	KindFaucetPaused             Kind = "FaucetPaused"
	KindAlreadyClaimed           Kind = "AlreadyClaimed"
	KindNoCustomAmount           Kind = "NoCustomAmount"
	KindZeroCustomAmount         Kind = "ZeroCustomAmount"
	KindChainReverted            Kind = "ChainReverted"
	KindTxTimeout                Kind = "TxTimeout"
	KindUnauthorized             Kind = "Unauthorized"
	KindNotContractOwner         Kind = "NotContractOwner"
	KindCacheUnavailable         Kind = "CacheUnavailable"
	KindNotFound                 Kind = "NotFound"
	KindInternal                 Kind = "Internal"
)

// Error is a service error with a kind and, when a transaction was
// broadcast before failing, its hash.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	TxHash  string `json:"txHash,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates a service error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithTxHash attaches the broadcast transaction hash to the error.
func (e *Error) WithTxHash(hash string) *Error {
	e.TxHash = hash
	return e
}

// From extracts a service error. Anything that isn't one already is
// reported as Internal with the raw message suppressed behind a generic
// text; provider messages must not leak to callers.
func From(err error) *Error {
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}
	return &Error{Kind: KindInternal, Message: "internal error"}
}

// HTTPStatus maps a failure kind to the HTTP status code used by the
// JSON surface.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindBadAddress, KindValidation, KindUnsupportedChain, KindCodeMissing, KindCodeInvalid,
		KindCodeExpired, KindCodeFuture, KindFaucetPaused, KindAlreadyClaimed,
		KindNoCustomAmount, KindZeroCustomAmount, KindInsufficientRelayerFunds,
		KindChainReverted:
		return http.StatusBadRequest
	case KindUnauthorized, KindNotContractOwner:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRpcUnavailable, KindTxTimeout, KindCacheUnavailable, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
