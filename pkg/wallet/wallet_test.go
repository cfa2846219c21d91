package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func TestNewWallet(t *testing.T) {
	t.Parallel()

	w, err := NewWallet(testKey)
	require.NoError(t, err)
	require.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", w.Address().Hex())
	require.NotNil(t, w.PrivateKey())
}

func TestNewWalletAcceptsHexPrefix(t *testing.T) {
	t.Parallel()

	plain, err := NewWallet(testKey)
	require.NoError(t, err)
	prefixed, err := NewWallet("0x" + testKey)
	require.NoError(t, err)
	require.Equal(t, plain.Address(), prefixed.Address())
}

func TestNewWalletRejectsMalformedKey(t *testing.T) {
	t.Parallel()

	_, err := NewWallet("not-a-key")
	require.Error(t, err)

	_, err = NewWallet("")
	require.Error(t, err)
}
