package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom(t *testing.T) {
	t.Parallel()

	t.Run("service error passes through", func(t *testing.T) {
		t.Parallel()

		err := New(KindCodeExpired, "drop code expired")
		require.Same(t, err, From(err))
	})

	t.Run("wrapped service error is unwrapped", func(t *testing.T) {
		t.Parallel()

		inner := New(KindFaucetPaused, "faucet paused")
		wrapped := fmt.Errorf("relaying claim: %w", inner)
		require.Same(t, inner, From(wrapped))
	})

	t.Run("foreign errors are suppressed", func(t *testing.T) {
		t.Parallel()

		serr := From(errors.New("pq: password authentication failed"))
		require.Equal(t, KindInternal, serr.Kind)
		require.Equal(t, "internal error", serr.Message)
	})
}

func TestWithTxHash(t *testing.T) {
	t.Parallel()

	err := New(KindTxTimeout, "no receipt").WithTxHash("0xabc")
	require.Equal(t, "0xabc", err.TxHash)
	require.Equal(t, "TxTimeout: no receipt", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusBadRequest, HTTPStatus(KindBadAddress))
	require.Equal(t, http.StatusBadRequest, HTTPStatus(KindChainReverted))
	require.Equal(t, http.StatusForbidden, HTTPStatus(KindUnauthorized))
	require.Equal(t, http.StatusForbidden, HTTPStatus(KindNotContractOwner))
	require.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(KindRpcUnavailable))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(Kind("SomethingNew")))
}
