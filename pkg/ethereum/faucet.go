package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Faucet is a typed view over a deployed faucet contract.
type Faucet struct {
	*Caller
}

// NewFaucet binds the faucet contract at addr.
func NewFaucet(backend CallBackend, addr common.Address) *Faucet {
	return &Faucet{NewCaller(backend, FaucetABI, addr)}
}

// Paused reports whether claiming is paused.
func (f *Faucet) Paused(ctx context.Context) (bool, error) {
	return f.Bool(ctx, "paused")
}

// Owner returns the faucet owner.
func (f *Faucet) Owner(ctx context.Context) (common.Address, error) {
	return f.AddressOf(ctx, "owner")
}

// IsAdmin reports whether addr is a faucet admin.
func (f *Faucet) IsAdmin(ctx context.Context, addr common.Address) (bool, error) {
	return f.Bool(ctx, "isAdmin", addr)
}

// Backend returns the faucet's configured backend address.
func (f *Faucet) Backend(ctx context.Context) (common.Address, error) {
	return f.AddressOf(ctx, "BACKEND")
}

// HasClaimed reports whether addr already claimed.
func (f *Faucet) HasClaimed(ctx context.Context, addr common.Address) (bool, error) {
	return f.Bool(ctx, "hasClaimed", addr)
}

// HasCustomClaimAmount reports whether addr has a per-user amount set.
func (f *Faucet) HasCustomClaimAmount(ctx context.Context, addr common.Address) (bool, error) {
	return f.Bool(ctx, "hasCustomClaimAmount", addr)
}

// CustomClaimAmount returns addr's per-user claim amount.
func (f *Faucet) CustomClaimAmount(ctx context.Context, addr common.Address) (*big.Int, error) {
	return f.BigInt(ctx, "getCustomClaimAmount", addr)
}

// Token resolves the faucet's ERC-20 token address. Faucet generations
// disagree on the getter name, so token() is tried first and
// tokenAddress() second.
func (f *Faucet) Token(ctx context.Context) (common.Address, error) {
	if addr, err := f.AddressOf(ctx, "token"); err == nil {
		return addr, nil
	}
	return f.AddressOf(ctx, "tokenAddress")
}

// ClaimCall packs claim([users]) calldata.
func (f *Faucet) ClaimCall(users []common.Address) (Call, error) {
	return f.Pack("claim", users)
}

// SetWhitelistCall packs setWhitelist(user, enabled) calldata.
func (f *Faucet) SetWhitelistCall(user common.Address, enabled bool) (Call, error) {
	return f.Pack("setWhitelist", user, enabled)
}

// Factory is a typed view over a faucet factory registry contract.
type Factory struct {
	*Caller
}

// NewFactory binds the factory contract at addr.
func NewFactory(backend CallBackend, addr common.Address) *Factory {
	return &Factory{NewCaller(backend, FactoryABI, addr)}
}

// FactoryTransaction mirrors the factory's transaction log entry.
type FactoryTransaction struct {
	FaucetAddress   common.Address `json:"faucetAddress"`
	TransactionType string         `json:"transactionType"`
	Initiator       common.Address `json:"initiator"`
	Amount          *big.Int       `json:"amount"`
	IsEther         bool           `json:"isEther"`
	Timestamp       *big.Int       `json:"timestamp"`
}

// AllFaucets returns the registry of deployed faucets.
func (f *Factory) AllFaucets(ctx context.Context) ([]common.Address, error) {
	results, err := f.Call(ctx, "getAllFaucets")
	if err != nil {
		return nil, err
	}
	addrs, ok := results[0].([]common.Address)
	if !ok {
		return nil, errNotAddressSlice
	}
	return addrs, nil
}

// AllTransactions returns the registry's transaction log.
func (f *Factory) AllTransactions(ctx context.Context) ([]FactoryTransaction, error) {
	results, err := f.Call(ctx, "getAllTransactions")
	if err != nil {
		return nil, err
	}
	raw, ok := results[0].([]struct {
		FaucetAddress   common.Address `json:"faucetAddress"`
		TransactionType string         `json:"transactionType"`
		Initiator       common.Address `json:"initiator"`
		Amount          *big.Int       `json:"amount"`
		IsEther         bool           `json:"isEther"`
		Timestamp       *big.Int       `json:"timestamp"`
	})
	if !ok {
		return nil, errNotTransactionSlice
	}
	txs := make([]FactoryTransaction, 0, len(raw))
	for _, t := range raw {
		txs = append(txs, FactoryTransaction(t))
	}
	return txs, nil
}

// ERC20 is a typed view over a token contract.
type ERC20 struct {
	*Caller
}

// NewERC20 binds the token contract at addr.
func NewERC20(backend CallBackend, addr common.Address) *ERC20 {
	return &ERC20{NewCaller(backend, ERC20ABI, addr)}
}

// Symbol returns the token symbol.
func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	return t.String(ctx, "symbol")
}

// Decimals returns the token decimals.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	return t.Uint8(ctx, "decimals")
}

// BalanceOf returns addr's token balance in base units.
func (t *ERC20) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	return t.BigInt(ctx, "balanceOf", addr)
}

// USDTMgmt is a typed view over the USDT management contract.
type USDTMgmt struct {
	*Caller
}

// NewUSDTMgmt binds the management contract at addr.
func NewUSDTMgmt(backend CallBackend, addr common.Address) *USDTMgmt {
	return &USDTMgmt{NewCaller(backend, USDTMgmtABI, addr)}
}

// USDT returns the managed token's address.
func (m *USDTMgmt) USDT(ctx context.Context) (common.Address, error) {
	return m.AddressOf(ctx, "USDT")
}

// Owner returns the management contract owner.
func (m *USDTMgmt) Owner(ctx context.Context) (common.Address, error) {
	return m.AddressOf(ctx, "owner")
}

// USDTBalance returns the contract's USDT balance in base units.
func (m *USDTMgmt) USDTBalance(ctx context.Context) (*big.Int, error) {
	return m.BigInt(ctx, "getUSDTBalance")
}

// TransferUSDTCall packs transferUSDT(to, amount) calldata.
func (m *USDTMgmt) TransferUSDTCall(to common.Address, amount *big.Int) (Call, error) {
	return m.Pack("transferUSDT", to, amount)
}

// TransferAllUSDTCall packs transferAllUSDT(to) calldata.
func (m *USDTMgmt) TransferAllUSDTCall(to common.Address) (Call, error) {
	return m.Pack("transferAllUSDT", to)
}
