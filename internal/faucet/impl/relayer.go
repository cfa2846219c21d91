// Package impl implements the faucet relayer service.
package impl

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/internal/faucet"
	"github.com/faucetdrops/backend/pkg/auth"
	"github.com/faucetdrops/backend/pkg/dropcode"
	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/ethereum"
	"github.com/faucetdrops/backend/pkg/store"
	"github.com/faucetdrops/backend/pkg/wallet"
)

var log = logger.With().Str("component", "relayer").Logger()

// timeNow is swapped in tests.
var timeNow = time.Now

// Relayer is the production faucet relayer: one operator wallet, one
// per-chain submitter stack built lazily.
type Relayer struct {
	wallet *wallet.Wallet
	stacks *chains.Stacks
	codes  store.DropCodeStore
}

// NewRelayer creates the relayer service.
func NewRelayer(w *wallet.Wallet, stacks *chains.Stacks, codes store.DropCodeStore) *Relayer {
	return &Relayer{
		wallet: w,
		stacks: stacks,
		codes:  codes,
	}
}

var _ faucet.Service = (*Relayer)(nil)

// parseAddress validates and checksums a hex address.
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errs.New(errs.KindBadAddress, "malformed address %q", s)
	}
	return common.HexToAddress(s), nil
}

// sharedPreconditions runs the precondition prefix common to every claim
// variant, in declared order, and returns the assembled stack.
func (r *Relayer) sharedPreconditions(
	ctx context.Context, req faucet.ClaimRequest,
) (*chains.Stack, *ethereum.Faucet, common.Address, error) {
	user, err := parseAddress(req.UserAddress)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	faucetAddr, err := parseAddress(req.FaucetAddress)
	if err != nil {
		return nil, nil, common.Address{}, err
	}

	s, err := r.stacks.Get(ctx, req.ChainID)
	if err != nil {
		return nil, nil, common.Address{}, err
	}

	contract := ethereum.NewFaucet(s.Backend, faucetAddr)
	paused, err := contract.Paused(ctx)
	if err != nil {
		return nil, nil, common.Address{}, errs.New(errs.KindRpcUnavailable, "reading paused state: %s", err)
	}
	if paused {
		return nil, nil, common.Address{}, errs.New(errs.KindFaucetPaused, "faucet %s is paused", faucetAddr.Hex())
	}

	if err := s.Submitter.CheckBalance(ctx, s.Chain.NativeSymbol); err != nil {
		return nil, nil, common.Address{}, err
	}

	return s, contract, user, nil
}

// verifyStoredCode maps the code store verdict onto the error taxonomy.
func (r *Relayer) verifyStoredCode(ctx context.Context, faucetAddr common.Address, candidate string) error {
	record, err := r.codes.Get(ctx, faucetAddr.Hex())
	if err != nil {
		return errs.New(errs.KindCacheUnavailable, "reading drop code: %s", err)
	}
	switch dropcode.Verify(record, candidate, timeNow()) {
	case dropcode.ReasonValid:
		return nil
	case dropcode.ReasonNoRecord:
		return errs.New(errs.KindCodeMissing, "no drop code set for faucet %s", faucetAddr.Hex())
	case dropcode.ReasonMismatch:
		return errs.New(errs.KindCodeInvalid, "drop code does not match")
	case dropcode.ReasonExpired:
		return errs.New(errs.KindCodeExpired, "drop code expired")
	case dropcode.ReasonFuture:
		return errs.New(errs.KindCodeFuture, "drop code is not active yet")
	default:
		return errs.New(errs.KindInternal, "unexpected code verification outcome")
	}
}

// relayClaim builds claim([user]), splices the optional referral bytes and
// submits.
func (r *Relayer) relayClaim(
	ctx context.Context, s *chains.Stack, contract *ethereum.Faucet, user common.Address, referralHex string,
) (string, error) {
	referral, err := ethereum.ParseReferralData(referralHex)
	if err != nil {
		return "", errs.New(errs.KindValidation, "%s", err)
	}

	call, err := contract.ClaimCall([]common.Address{user})
	if err != nil {
		return "", errs.New(errs.KindInternal, "packing claim: %s", err)
	}
	tx, err := s.Builder.Build(ctx, r.wallet.Address(), call)
	if err != nil {
		return "", errs.New(errs.KindRpcUnavailable, "building claim tx: %s", err)
	}
	s.Builder.SpliceReferral(ctx, r.wallet.Address(), tx, referral)

	hash, err := s.Submitter.Submit(ctx, tx)
	if err != nil {
		return "", err
	}
	log.Info().
		Str("user", user.Hex()).
		Str("faucet", contract.Address().Hex()).
		Str("txHash", hash.Hex()).
		Msg("claim relayed")
	return hash.Hex(), nil
}

// Claim implements the coded claim variant.
func (r *Relayer) Claim(ctx context.Context, req faucet.ClaimRequest) (string, error) {
	s, contract, user, err := r.sharedPreconditions(ctx, req)
	if err != nil {
		return "", err
	}

	if err := r.verifyStoredCode(ctx, contract.Address(), req.SecretCode); err != nil {
		return "", err
	}
	if err := r.checkNotClaimed(ctx, contract, user); err != nil {
		return "", err
	}

	if req.ShouldWhitelist {
		if _, err := r.submitWhitelist(ctx, s, contract, user); err != nil {
			return "", err
		}
	}
	return r.relayClaim(ctx, s, contract, user, req.DivviReferralData)
}

// ClaimNoCode implements the codeless claim variant.
func (r *Relayer) ClaimNoCode(ctx context.Context, req faucet.ClaimRequest) (string, error) {
	s, contract, user, err := r.sharedPreconditions(ctx, req)
	if err != nil {
		return "", err
	}

	if err := r.checkNotClaimed(ctx, contract, user); err != nil {
		return "", err
	}

	if req.ShouldWhitelist {
		if _, err := r.submitWhitelist(ctx, s, contract, user); err != nil {
			return "", err
		}
	}
	return r.relayClaim(ctx, s, contract, user, req.DivviReferralData)
}

// ClaimCustom implements the custom-amount claim variant. The call target
// is still claim([user]); only the preconditions differ.
func (r *Relayer) ClaimCustom(ctx context.Context, req faucet.ClaimRequest) (string, error) {
	s, contract, user, err := r.sharedPreconditions(ctx, req)
	if err != nil {
		return "", err
	}

	hasCustom, err := contract.HasCustomClaimAmount(ctx, user)
	if err != nil {
		return "", errs.New(errs.KindRpcUnavailable, "reading custom claim flag: %s", err)
	}
	if !hasCustom {
		return "", errs.New(errs.KindNoCustomAmount, "no custom claim amount set for %s", user.Hex())
	}

	amount, err := contract.CustomClaimAmount(ctx, user)
	if err != nil {
		return "", errs.New(errs.KindRpcUnavailable, "reading custom claim amount: %s", err)
	}
	if amount.Sign() <= 0 {
		return "", errs.New(errs.KindZeroCustomAmount, "custom claim amount for %s is zero", user.Hex())
	}

	if err := r.checkNotClaimed(ctx, contract, user); err != nil {
		return "", err
	}
	return r.relayClaim(ctx, s, contract, user, req.DivviReferralData)
}

func (r *Relayer) checkNotClaimed(ctx context.Context, contract *ethereum.Faucet, user common.Address) error {
	claimed, err := contract.HasClaimed(ctx, user)
	if err != nil {
		return errs.New(errs.KindRpcUnavailable, "reading claim state: %s", err)
	}
	if claimed {
		return errs.New(errs.KindAlreadyClaimed, "%s already claimed", user.Hex())
	}
	return nil
}

func (r *Relayer) submitWhitelist(
	ctx context.Context, s *chains.Stack, contract *ethereum.Faucet, user common.Address,
) (string, error) {
	call, err := contract.SetWhitelistCall(user, true)
	if err != nil {
		return "", errs.New(errs.KindInternal, "packing setWhitelist: %s", err)
	}
	tx, err := s.Builder.Build(ctx, r.wallet.Address(), call)
	if err != nil {
		return "", errs.New(errs.KindRpcUnavailable, "building whitelist tx: %s", err)
	}
	hash, err := s.Submitter.Submit(ctx, tx)
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

// Whitelist sets the whitelist flag for a user. Unlike the historical
// shape, authorization is asserted here against the on-chain roles.
func (r *Relayer) Whitelist(
	ctx context.Context, adminAddress, userAddress, faucetAddress string, chainID chains.ChainID,
) (string, error) {
	admin, err := parseAddress(adminAddress)
	if err != nil {
		return "", err
	}
	user, err := parseAddress(userAddress)
	if err != nil {
		return "", err
	}
	faucetAddr, err := parseAddress(faucetAddress)
	if err != nil {
		return "", err
	}

	s, err := r.stacks.Get(ctx, chainID)
	if err != nil {
		return "", err
	}
	contract := ethereum.NewFaucet(s.Backend, faucetAddr)

	if !auth.IsAuthorized(ctx, contract, admin) {
		return "", errs.New(errs.KindUnauthorized, "%s is not authorized for faucet %s", admin.Hex(), faucetAddr.Hex())
	}
	if err := s.Submitter.CheckBalance(ctx, s.Chain.NativeSymbol); err != nil {
		return "", err
	}
	return r.submitWhitelist(ctx, s, contract, user)
}

// SetClaimParameters mints a fresh code for the round window and stores
// the optional tasks payload. No transaction is sent; the on-chain
// parameters are set by the admin's own wallet.
func (r *Relayer) SetClaimParameters(
	ctx context.Context, req faucet.SetClaimParametersRequest,
) (faucet.SetClaimParametersResult, error) {
	faucetAddr, err := parseAddress(req.FaucetAddress)
	if err != nil {
		return faucet.SetClaimParametersResult{}, err
	}
	if !chains.IsSupported(req.ChainID) {
		return faucet.SetClaimParametersResult{}, errs.New(errs.KindUnsupportedChain, "chain %d is not supported", req.ChainID)
	}
	if err := dropcode.ValidateWindow(req.StartTime, req.EndTime); err != nil {
		return faucet.SetClaimParametersResult{}, errs.New(errs.KindValidation, "%s", err)
	}

	code, err := dropcode.Generate()
	if err != nil {
		return faucet.SetClaimParametersResult{}, errs.New(errs.KindInternal, "generating drop code: %s", err)
	}
	record := dropcode.Record{
		FaucetAddress: faucetAddr.Hex(),
		Code:          code,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}
	if err := r.codes.Upsert(ctx, record); err != nil {
		return faucet.SetClaimParametersResult{}, errs.New(errs.KindCacheUnavailable, "storing drop code: %s", err)
	}

	tasksStored := false
	if len(req.Tasks) > 0 {
		if err := r.codes.SaveTasks(ctx, faucetAddr.Hex(), req.Tasks); err != nil {
			return faucet.SetClaimParametersResult{}, errs.New(errs.KindCacheUnavailable, "storing tasks: %s", err)
		}
		tasksStored = true
	}

	log.Info().Str("faucet", faucetAddr.Hex()).Msg("claim parameters stored")
	return faucet.SetClaimParametersResult{SecretCode: code, TasksStored: tasksStored}, nil
}

// RotateDropCode generates a new code value for the faucet, choosing the
// window by the rotation cases, after checking the caller's on-chain
// authorization. The previous code stops verifying.
func (r *Relayer) RotateDropCode(
	ctx context.Context, faucetAddress, userAddress string, chainID chains.ChainID,
) (string, error) {
	faucetAddr, err := parseAddress(faucetAddress)
	if err != nil {
		return "", err
	}
	user, err := parseAddress(userAddress)
	if err != nil {
		return "", err
	}

	s, err := r.stacks.Get(ctx, chainID)
	if err != nil {
		return "", err
	}
	contract := ethereum.NewFaucet(s.Backend, faucetAddr)
	if !auth.IsAuthorized(ctx, contract, user) {
		return "", errs.New(errs.KindUnauthorized, "%s is not authorized for faucet %s", user.Hex(), faucetAddr.Hex())
	}

	existing, err := r.codes.Get(ctx, faucetAddr.Hex())
	if err != nil {
		return "", errs.New(errs.KindCacheUnavailable, "reading drop code: %s", err)
	}

	code, err := dropcode.Generate()
	if err != nil {
		return "", errs.New(errs.KindInternal, "generating drop code: %s", err)
	}
	start, end := dropcode.RotateWindow(existing, timeNow())
	record := dropcode.Record{
		FaucetAddress: faucetAddr.Hex(),
		Code:          code,
		StartTime:     start,
		EndTime:       end,
	}
	if err := r.codes.Upsert(ctx, record); err != nil {
		return "", errs.New(errs.KindCacheUnavailable, "storing rotated code: %s", err)
	}

	log.Info().Str("faucet", faucetAddr.Hex()).Msg("drop code rotated")
	return code, nil
}

// GetCodeMetadata reads the faucet's stored code with validity flags.
func (r *Relayer) GetCodeMetadata(ctx context.Context, faucetAddress string) (faucet.CodeMetadata, error) {
	faucetAddr, err := parseAddress(faucetAddress)
	if err != nil {
		return faucet.CodeMetadata{}, err
	}
	record, err := r.codes.Get(ctx, faucetAddr.Hex())
	if err != nil {
		return faucet.CodeMetadata{}, errs.New(errs.KindCacheUnavailable, "reading drop code: %s", err)
	}
	if record == nil {
		return faucet.CodeMetadata{}, errs.New(errs.KindNotFound, "no drop code set for faucet %s", faucetAddr.Hex())
	}

	now := timeNow()
	return faucet.CodeMetadata{
		FaucetAddress: record.FaucetAddress,
		SecretCode:    record.Code,
		StartTime:     record.StartTime,
		EndTime:       record.EndTime,
		IsValid:       record.IsValidAt(now),
		IsExpired:     record.IsExpiredAt(now),
		IsFuture:      record.IsFutureAt(now),
		TimeRemaining: record.TimeRemainingAt(now),
	}, nil
}

// VerifyCode checks a candidate code without relaying anything.
func (r *Relayer) VerifyCode(ctx context.Context, faucetAddress, candidate string) (dropcode.VerifyReason, error) {
	faucetAddr, err := parseAddress(faucetAddress)
	if err != nil {
		return "", err
	}
	record, err := r.codes.Get(ctx, faucetAddr.Hex())
	if err != nil {
		return "", errs.New(errs.KindCacheUnavailable, "reading drop code: %s", err)
	}
	return dropcode.Verify(record, candidate, timeNow()), nil
}
