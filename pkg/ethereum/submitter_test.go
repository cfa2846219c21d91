package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/nonce"
	"github.com/faucetdrops/backend/pkg/wallet"
)

const testKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

type fakeTracker struct {
	next       int64
	registered []common.Hash
	unlocks    int
	resyncs    int
}

func (t *fakeTracker) GetNonce(context.Context) (nonce.RegisterPendingTx, nonce.UnlockTracker, int64, error) {
	n := t.next
	register := func(h common.Hash) {
		t.registered = append(t.registered, h)
		t.next = n + 1
	}
	unlock := func() { t.unlocks++ }
	return register, unlock, n, nil
}

func (t *fakeTracker) Resync(context.Context) error {
	t.resyncs++
	return nil
}

func newTestSubmitter(t *testing.T, backend Backend) (*Submitter, *fakeTracker) {
	t.Helper()
	w, err := wallet.NewWallet(testKey)
	require.NoError(t, err)
	tracker := &fakeTracker{}
	return NewSubmitter(backend, w, tracker, 42220), tracker
}

func TestSubmitSuccess(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	submitter, tracker := newTestSubmitter(t, backend)

	tx := &Tx{To: common.HexToAddress("0x01"), Data: []byte{0xaa}, GasPrice: big.NewInt(1), Gas: 21_000}
	hash, err := submitter.Submit(context.Background(), tx)
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	require.Equal(t, backend.sent[0].Hash(), hash)
	require.Equal(t, []byte{0xaa}, backend.sent[0].Data())
	require.Equal(t, uint64(0), backend.sent[0].Nonce())
	require.Equal(t, []common.Hash{hash}, tracker.registered)
	require.Equal(t, 1, tracker.unlocks)
}

func TestSubmitRetriesOnNonceRace(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.sendErrs = []error{errors.New("nonce too low")}
	submitter, tracker := newTestSubmitter(t, backend)

	tx := &Tx{To: common.HexToAddress("0x01"), GasPrice: big.NewInt(1), Gas: 21_000}
	_, err := submitter.Submit(context.Background(), tx)
	require.NoError(t, err)

	require.Equal(t, 1, tracker.resyncs)
	require.Len(t, backend.sent, 1)
	require.Equal(t, 2, tracker.unlocks)
}

func TestSubmitDoesNotRetryOtherErrors(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.sendErrs = []error{errors.New("insufficient funds for gas * price + value")}
	submitter, tracker := newTestSubmitter(t, backend)

	tx := &Tx{To: common.HexToAddress("0x01"), GasPrice: big.NewInt(1), Gas: 21_000}
	_, err := submitter.Submit(context.Background(), tx)
	require.Error(t, err)
	require.Equal(t, 0, tracker.resyncs)
	require.Empty(t, backend.sent)
}

func TestSubmitRevertedTx(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.failReceipts = true
	submitter, _ := newTestSubmitter(t, backend)

	// Re-executing the tx as a call yields an ABI-encoded Error(string).
	stringTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	encoded, err := abi.Arguments{{Type: stringTy}}.Pack("faucet paused")
	require.NoError(t, err)
	backend.callErr = &fakeDataError{
		msg:  "execution reverted",
		data: hexutil.Encode(append(common.Hex2Bytes("08c379a0"), encoded...)),
	}

	tx := &Tx{To: common.HexToAddress("0x01"), GasPrice: big.NewInt(1), Gas: 21_000}
	hash, err := submitter.Submit(context.Background(), tx)
	require.Error(t, err)

	serr := errs.From(err)
	require.Equal(t, errs.KindChainReverted, serr.Kind)
	require.Equal(t, "faucet paused", serr.Message)
	require.Equal(t, hash.Hex(), serr.TxHash)
}

func TestSubmitTimeout(t *testing.T) {
	prevStart, prevTimeout := receiptPollStart, receiptWaitTimeout
	receiptPollStart, receiptWaitTimeout = time.Millisecond, 20*time.Millisecond
	defer func() { receiptPollStart, receiptWaitTimeout = prevStart, prevTimeout }()

	backend := newFakeBackend()
	backend.dropReceipts = true
	submitter, _ := newTestSubmitter(t, backend)

	tx := &Tx{To: common.HexToAddress("0x01"), GasPrice: big.NewInt(1), Gas: 21_000}
	hash, err := submitter.Submit(context.Background(), tx)
	require.Error(t, err)

	serr := errs.From(err)
	require.Equal(t, errs.KindTxTimeout, serr.Kind)
	require.Equal(t, hash.Hex(), serr.TxHash)
	require.Len(t, backend.sent, 1)
}

func TestCheckBalance(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	submitter, _ := newTestSubmitter(t, backend)
	require.NoError(t, submitter.CheckBalance(context.Background(), "CELO"))

	backend.balance = big.NewInt(1)
	err := submitter.CheckBalance(context.Background(), "CELO")
	require.Error(t, err)
	require.Equal(t, errs.KindInsufficientRelayerFunds, errs.From(err).Kind)
	require.Contains(t, err.Error(), "CELO")
}

type fakeDataError struct {
	msg  string
	data string
}

func (e *fakeDataError) Error() string          { return e.msg }
func (e *fakeDataError) ErrorData() interface{} { return e.data }
