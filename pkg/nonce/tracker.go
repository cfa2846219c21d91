// Package nonce serializes operator nonce assignment per chain. Two
// concurrent relays picking the same pending nonce would make one broadcast
// fail; the tracker hands out nonces behind a lock instead of asking the
// node for the pending count on every request.
package nonce

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// RegisterPendingTx registers a broadcast tx in the nonce tracker,
// consuming the handed-out nonce.
type RegisterPendingTx func(common.Hash)

// UnlockTracker unlocks the tracker so another goroutine can call GetNonce.
type UnlockTracker func()

// Tracker manages the operator nonce for one chain.
type Tracker interface {
	// GetNonce returns the nonce to be used in the next transaction.
	// The tracker stays locked until the caller invokes unlock; the caller
	// must invoke registerPendingTx first if it broadcast a transaction.
	GetNonce(context.Context) (RegisterPendingTx, UnlockTracker, int64, error)

	// Resync refreshes the tracker from the network's pending count. Must
	// not be called while a GetNonce lease is open.
	Resync(context.Context) error
}

// ChainClient is the chain surface a Tracker needs.
type ChainClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}
