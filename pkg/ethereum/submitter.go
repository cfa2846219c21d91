package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	eth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	logger "github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/nonce"
	"github.com/faucetdrops/backend/pkg/wallet"
)

var submitLog = logger.With().Str("component", "submitter").Logger()

// minOperatorBalance is 0.000001 of the native unit in wei. Below it no
// relay is attempted.
var minOperatorBalance = big.NewInt(1_000_000_000_000)

// receiptPoll is the backoff schedule for receipt polling and the total
// wait budget.
var (
	receiptPollStart   = 1 * time.Second
	receiptPollCap     = 8 * time.Second
	receiptWaitTimeout = 300 * time.Second
)

// Submitter signs transactions with the operator key, broadcasts them and
// waits for inclusion.
type Submitter struct {
	backend Backend
	wallet  *wallet.Wallet
	tracker nonce.Tracker
	chainID int64
	signer  types.Signer
}

// NewSubmitter creates a submitter for one chain.
func NewSubmitter(backend Backend, w *wallet.Wallet, tracker nonce.Tracker, chainID int64) *Submitter {
	return &Submitter{
		backend: backend,
		wallet:  w,
		tracker: tracker,
		chainID: chainID,
		signer:  types.NewEIP155Signer(big.NewInt(chainID)),
	}
}

// CheckBalance verifies the operator holds at least the minimum native
// balance on this chain. The observed balance and native symbol are part
// of the error.
func (s *Submitter) CheckBalance(ctx context.Context, nativeSymbol string) error {
	balance, err := s.backend.BalanceAt(ctx, s.wallet.Address(), nil)
	if err != nil {
		return errs.New(errs.KindRpcUnavailable, "reading relayer balance: %s", err)
	}
	if balance.Cmp(minOperatorBalance) < 0 {
		return errs.New(errs.KindInsufficientRelayerFunds,
			"relayer balance %s %s is below the minimum", formatNative(balance), nativeSymbol)
	}
	return nil
}

// Submit signs the tx, broadcasts it, and waits for the receipt. A receipt
// with a non-success status is reported as ChainReverted with the revert
// reason extracted by re-executing the tx as a call at the receipt's block.
// Exceeding the wait budget is reported as TxTimeout. Both carry the hash.
func (s *Submitter) Submit(ctx context.Context, tx *Tx) (common.Hash, error) {
	signed, err := s.broadcast(ctx, tx)
	if err != nil {
		return common.Hash{}, err
	}

	receipt, err := s.waitMined(ctx, signed.Hash())
	if err != nil {
		return signed.Hash(), err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		reason := s.revertReason(ctx, signed, receipt)
		return signed.Hash(), errs.New(errs.KindChainReverted, "%s", reason).WithTxHash(signed.Hash().Hex())
	}
	return signed.Hash(), nil
}

// broadcast signs and sends under the nonce tracker lock. A nonce race
// detected by the node triggers one resync-and-retry.
func (s *Submitter) broadcast(ctx context.Context, tx *Tx) (*types.Transaction, error) {
	signed, err := s.trySend(ctx, tx)

	possibleErrMsgs := []string{"nonce too low", "invalid transaction nonce", "replacement transaction underpriced"}
	if err != nil {
		for _, errMsg := range possibleErrMsgs {
			if strings.Contains(err.Error(), errMsg) {
				submitLog.Warn().Err(err).Msg("retrying broadcast after nonce resync")
				if err := s.tracker.Resync(ctx); err != nil {
					return nil, errs.New(errs.KindInternal, "nonce resync: %s", err)
				}
				signed, err = s.trySend(ctx, tx)
				if err != nil {
					return nil, errs.New(errs.KindInternal, "broadcast retry: %s", err)
				}
				return signed, nil
			}
		}
		return nil, errs.New(errs.KindInternal, "broadcast: %s", err)
	}
	return signed, nil
}

func (s *Submitter) trySend(ctx context.Context, tx *Tx) (*types.Transaction, error) {
	registerPendingTx, unlock, n, err := s.tracker.GetNonce(ctx)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %s", err)
	}
	defer unlock()

	signed, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    uint64(n),
		GasPrice: tx.GasPrice,
		Gas:      tx.Gas,
		To:       &tx.To,
		Value:    big.NewInt(0),
		Data:     tx.Data,
	}), s.signer, s.wallet.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("signing tx: %s", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	registerPendingTx(signed.Hash())
	return signed, nil
}

// waitMined polls for the receipt on a 1s/2s/4s/8s backoff within a 300s
// budget. The transaction is not retracted on timeout; it may still land.
func (s *Submitter) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	deadline := time.Now().Add(receiptWaitTimeout)
	interval := receiptPollStart

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		if time.Now().After(deadline) {
			return nil, errs.New(errs.KindTxTimeout,
				"transaction not mined within %s", receiptWaitTimeout).WithTxHash(hash.Hex())
		}
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.KindTxTimeout, "context done waiting for receipt").WithTxHash(hash.Hex())
		case <-time.After(interval):
		}
		if interval < receiptPollCap {
			interval *= 2
			if interval > receiptPollCap {
				interval = receiptPollCap
			}
		}
	}
}

// revertReason re-executes the tx as a call at the receipt's block to
// recover the revert string. Falls back to the raw node message.
func (s *Submitter) revertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string {
	msg := eth.CallMsg{
		From:     s.wallet.Address(),
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}
	_, err := s.backend.CallContract(ctx, msg, receipt.BlockNumber)
	if err == nil {
		return "transaction reverted"
	}

	if dataErr, ok := err.(rpc.DataError); ok {
		if encoded, ok := dataErr.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(encoded)); uerr == nil {
				return reason
			}
		}
	}
	return err.Error()
}

func formatNative(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', 8)
}
