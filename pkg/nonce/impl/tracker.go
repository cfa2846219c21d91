package impl

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/pkg/nonce"
	"github.com/faucetdrops/backend/pkg/wallet"
)

var log = logger.With().Str("component", "nonce").Logger()

// LocalTracker keeps the operator nonce for one chain in memory. It is
// initialized lazily from the network's pending count and advances locally
// as transactions are registered. The relayer is stateless, so there is no
// persisted pending-tx list; a broadcast failure is handled by resyncing.
type LocalTracker struct {
	wallet *wallet.Wallet
	client nonce.ChainClient

	mu          sync.Mutex
	initialized bool
	currNonce   int64
}

// NewLocalTracker creates a tracker for the wallet on one chain.
func NewLocalTracker(w *wallet.Wallet, client nonce.ChainClient) *LocalTracker {
	return &LocalTracker{wallet: w, client: client}
}

// GetNonce returns the nonce for the next transaction. The tracker stays
// locked until unlock is called.
func (t *LocalTracker) GetNonce(ctx context.Context) (nonce.RegisterPendingTx, nonce.UnlockTracker, int64, error) {
	t.mu.Lock()

	if !t.initialized {
		networkNonce, err := t.client.PendingNonceAt(ctx, t.wallet.Address())
		if err != nil {
			t.mu.Unlock()
			return nil, nil, 0, fmt.Errorf("pending nonce at: %s", err)
		}
		t.currNonce = int64(networkNonce)
		t.initialized = true
		log.Info().
			Str("wallet", t.wallet.Address().Hex()).
			Int64("currentNonce", t.currNonce).
			Msg("initializing tracker")
	}

	n := t.currNonce

	registerPendingTx := func(pendingHash common.Hash) {
		log.Debug().
			Int64("nonce", n).
			Str("hash", pendingHash.Hex()).
			Msg("registering pending tx")
		t.currNonce = n + 1
	}
	unlock := func() {
		t.mu.Unlock()
	}

	return registerPendingTx, unlock, n, nil
}

// Resync refreshes the nonce from the network. Used after "nonce too low"
// style broadcast failures.
func (t *LocalTracker) Resync(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	networkNonce, err := t.client.PendingNonceAt(ctx, t.wallet.Address())
	if err != nil {
		return fmt.Errorf("pending nonce at: %s", err)
	}
	t.currNonce = int64(networkNonce)
	t.initialized = true
	return nil
}
