// Package auth decides whether an address may administer a faucet, based
// on three on-chain predicates.
package auth

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/rs/zerolog/log"
)

var log = logger.With().Str("component", "auth").Logger()

// FaucetReader is the faucet contract surface the oracle consults.
type FaucetReader interface {
	Owner(ctx context.Context) (common.Address, error)
	IsAdmin(ctx context.Context, addr common.Address) (bool, error)
	Backend(ctx context.Context) (common.Address, error)
}

// IsAuthorized reports whether user may administer the faucet: owner()
// equals user, isAdmin(user) is true, or BACKEND() equals user. A failing
// view call counts as "check did not pass"; the remaining checks still
// run. Only when all three fail or return false is the user unauthorized.
func IsAuthorized(ctx context.Context, faucet FaucetReader, user common.Address) bool {
	if owner, err := faucet.Owner(ctx); err == nil {
		if bytes.Equal(owner.Bytes(), user.Bytes()) {
			return true
		}
	} else {
		log.Debug().Err(err).Msg("owner() check failed")
	}

	if isAdmin, err := faucet.IsAdmin(ctx, user); err == nil {
		if isAdmin {
			return true
		}
	} else {
		log.Debug().Err(err).Msg("isAdmin() check failed")
	}

	if backend, err := faucet.Backend(ctx); err == nil {
		if bytes.Equal(backend.Bytes(), user.Bytes()) {
			return true
		}
	} else {
		log.Debug().Err(err).Msg("BACKEND() check failed")
	}

	return false
}
