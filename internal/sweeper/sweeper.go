// Package sweeper tops up low-balance users from a USDT management
// contract, funded by the operator.
package sweeper

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/ethereum"
	"github.com/faucetdrops/backend/pkg/wallet"
)

var log = logger.With().Str("component", "sweeper").Logger()

// DefaultThreshold is applied when a request carries no threshold.
var DefaultThreshold = decimal.NewFromInt(1)

// Request describes one sweep check. Amount nil means transfer the
// management contract's whole balance.
type Request struct {
	UserAddress     string           `json:"userAddress"`
	ToAddress       string           `json:"toAddress"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Threshold       decimal.Decimal  `json:"threshold"`
	ContractAddress string           `json:"contractAddress"`
	ChainID         chains.ChainID   `json:"chainId"`
}

// Result reports the outcome of one sweep check.
type Result struct {
	UserAddress       string          `json:"userAddress"`
	Balance           decimal.Decimal `json:"balance"`
	Threshold         decimal.Decimal `json:"threshold"`
	BelowThreshold    bool            `json:"belowThreshold"`
	TransferTriggered bool            `json:"transferTriggered"`
	TxHash            string          `json:"txHash,omitempty"`
	Message           string          `json:"message,omitempty"`
}

// BulkEntry pairs a user with their sweep outcome. Failed entries carry
// the error message instead of a result.
type BulkEntry struct {
	UserAddress string  `json:"userAddress"`
	Result      *Result `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Sweeper implements the USDT sweep flows against the per-chain stacks.
type Sweeper struct {
	wallet *wallet.Wallet
	stacks *chains.Stacks
}

// New creates a sweeper bound to the operator wallet.
func New(w *wallet.Wallet, stacks *chains.Stacks) *Sweeper {
	return &Sweeper{wallet: w, stacks: stacks}
}

// Sweep checks the user's token balance against the threshold and, when
// below it, transfers from the management contract to the destination.
func (s *Sweeper) Sweep(ctx context.Context, req Request) (Result, error) {
	user, err := parseAddress(req.UserAddress)
	if err != nil {
		return Result{}, err
	}
	to, err := parseAddress(req.ToAddress)
	if err != nil {
		return Result{}, err
	}
	mgmtAddr, err := parseAddress(req.ContractAddress)
	if err != nil {
		return Result{}, err
	}

	threshold := req.Threshold
	if threshold.IsZero() {
		threshold = DefaultThreshold
	}
	if req.Amount != nil && req.Amount.Sign() <= 0 {
		return Result{}, errs.New(errs.KindValidation, "sweep amount must be positive")
	}

	stack, err := s.stacks.Get(ctx, req.ChainID)
	if err != nil {
		return Result{}, err
	}

	mgmt := ethereum.NewUSDTMgmt(stack.Backend, mgmtAddr)
	tokenAddr, err := mgmt.USDT(ctx)
	if err != nil {
		return Result{}, errs.New(errs.KindRpcUnavailable, "resolving managed token: %s", err)
	}
	token := ethereum.NewERC20(stack.Backend, tokenAddr)

	decimals, err := token.Decimals(ctx)
	if err != nil {
		return Result{}, errs.New(errs.KindRpcUnavailable, "reading token decimals: %s", err)
	}
	rawBalance, err := token.BalanceOf(ctx, user)
	if err != nil {
		return Result{}, errs.New(errs.KindRpcUnavailable, "reading user balance: %s", err)
	}
	balance := decimal.NewFromBigInt(rawBalance, -int32(decimals))

	res := Result{
		UserAddress: user.Hex(),
		Balance:     balance,
		Threshold:   threshold,
	}
	if balance.GreaterThanOrEqual(threshold) {
		return res, nil
	}
	res.BelowThreshold = true

	owner, err := mgmt.Owner(ctx)
	if err != nil {
		return Result{}, errs.New(errs.KindRpcUnavailable, "reading contract owner: %s", err)
	}
	if owner != s.wallet.Address() {
		return Result{}, errs.New(errs.KindNotContractOwner,
			"operator %s does not own management contract %s", s.wallet.Address().Hex(), mgmtAddr.Hex())
	}

	reserve, err := mgmt.USDTBalance(ctx)
	if err != nil {
		return Result{}, errs.New(errs.KindRpcUnavailable, "reading contract balance: %s", err)
	}
	if reserve.Sign() == 0 {
		res.Message = "no balance"
		return res, nil
	}

	if err := stack.Submitter.CheckBalance(ctx, stack.Chain.NativeSymbol); err != nil {
		return Result{}, err
	}

	var call ethereum.Call
	if req.Amount == nil {
		call, err = mgmt.TransferAllUSDTCall(to)
	} else {
		units := req.Amount.Mul(decimal.New(1, int32(decimals))).BigInt()
		call, err = mgmt.TransferUSDTCall(to, units)
	}
	if err != nil {
		return Result{}, errs.New(errs.KindInternal, "packing transfer: %s", err)
	}

	tx, err := stack.Builder.Build(ctx, s.wallet.Address(), call)
	if err != nil {
		return Result{}, errs.New(errs.KindRpcUnavailable, "building transfer tx: %s", err)
	}
	hash, err := stack.Submitter.Submit(ctx, tx)
	if err != nil {
		return Result{}, err
	}

	res.TransferTriggered = true
	res.TxHash = hash.Hex()
	log.Info().
		Str("user", user.Hex()).
		Str("to", to.Hex()).
		Str("txHash", res.TxHash).
		Msg("sweep transfer relayed")
	return res, nil
}

// SweepBulk runs Sweep per user, continuing past individual failures.
func (s *Sweeper) SweepBulk(ctx context.Context, users []string, template Request) []BulkEntry {
	entries := make([]BulkEntry, 0, len(users))
	for _, user := range users {
		req := template
		req.UserAddress = user
		res, err := s.Sweep(ctx, req)
		entry := BulkEntry{UserAddress: user}
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Result = &res
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errs.New(errs.KindBadAddress, "malformed address %q", s)
	}
	return common.HexToAddress(s), nil
}
