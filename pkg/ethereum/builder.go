package ethereum

import (
	"context"
	"fmt"
	"math/big"

	eth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/rs/zerolog/log"
)

// Backend is the chain surface the builder and submitter need. It is
// satisfied by *ethclient.Client.
type Backend interface {
	CallBackend
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg eth.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Call is an opaque contract-function invocation: target plus ABI-encoded
// calldata.
type Call struct {
	To   common.Address
	Data []byte
}

const (
	// fallbackGasLimit is used when the node refuses to estimate.
	fallbackGasLimit = 200_000
	// gasBufferPercent pads the initial estimate.
	gasBufferPercent = 110
	// splicedGasBufferPercent pads the re-estimate after a referral splice.
	splicedGasBufferPercent = 115
)

var buildLog = logger.With().Str("component", "txbuilder").Logger()

// Tx is a fully-populated unsigned legacy transaction. Nonce assignment is
// deferred to submission so the nonce tracker lock is held as briefly as
// possible.
type Tx struct {
	To       common.Address
	Data     []byte
	GasPrice *big.Int
	Gas      uint64
}

// TxBuilder builds transactions using the network-standard gas price.
type TxBuilder struct {
	backend Backend
}

// NewTxBuilder creates a builder over the chain backend.
func NewTxBuilder(backend Backend) *TxBuilder {
	return &TxBuilder{backend: backend}
}

// Build populates gas price and gas limit for the call. When the node
// cannot estimate, the limit falls back to 200k. The estimate carries a
// 1.10x buffer.
func (b *TxBuilder) Build(ctx context.Context, from common.Address, call Call) (*Tx, error) {
	gasPrice, err := b.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %s", err)
	}

	gas, err := b.backend.EstimateGas(ctx, eth.CallMsg{From: from, To: &call.To, Data: call.Data})
	if err != nil {
		buildLog.Warn().Err(err).Str("to", call.To.Hex()).Msg("gas estimation failed, using fallback")
		gas = fallbackGasLimit
	}
	gas = gas * gasBufferPercent / 100

	return &Tx{
		To:       call.To,
		Data:     call.Data,
		GasPrice: gasPrice,
		Gas:      gas,
	}, nil
}

// SpliceReferral appends raw referral bytes after the ABI-encoded calldata
// and re-estimates gas with a 1.15x buffer, keeping the prior limit when
// re-estimation fails.
//
// Appending bytes after the calldata is an out-of-band convention honored
// by referral attribution tooling (e.g. Divvi); contracts that don't know
// about it ignore the trailing bytes. The splice is bit-exact
// concatenation, with no ABI awareness.
func (b *TxBuilder) SpliceReferral(ctx context.Context, from common.Address, tx *Tx, referral []byte) {
	if len(referral) == 0 {
		return
	}
	tx.Data = append(tx.Data, referral...)

	gas, err := b.backend.EstimateGas(ctx, eth.CallMsg{From: from, To: &tx.To, Data: tx.Data})
	if err != nil {
		buildLog.Warn().Err(err).Msg("re-estimation after referral splice failed, keeping prior gas")
		return
	}
	tx.Gas = gas * splicedGasBufferPercent / 100
}

// ParseReferralData decodes the optional hex referral byte string. An
// empty input yields nil bytes and no error.
func ParseReferralData(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		s = "0x" + s
	}
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decoding referral data: %s", err)
	}
	return data, nil
}
