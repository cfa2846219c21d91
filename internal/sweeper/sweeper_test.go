package sweeper

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	eth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/pkg/errs"
	ethpkg "github.com/faucetdrops/backend/pkg/ethereum"
	"github.com/faucetdrops/backend/pkg/wallet"
)

const testKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

var (
	sweepUser = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	sweepTo   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	mgmtAddr  = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	usdtAddr  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

// fakeSweepBackend serves the management and token contracts from memory,
// dispatching view calls by target address.
type fakeSweepBackend struct {
	owner    common.Address
	reserve  *big.Int
	decimals uint8
	balances map[common.Address]*big.Int

	operatorBalance *big.Int
	sent            []*types.Transaction
}

func newFakeSweepBackend(owner common.Address) *fakeSweepBackend {
	return &fakeSweepBackend{
		owner:           owner,
		reserve:         big.NewInt(10_000_000),
		decimals:        6,
		balances:        map[common.Address]*big.Int{},
		operatorBalance: big.NewInt(1e18),
	}
}

func (b *fakeSweepBackend) CallContract(_ context.Context, msg eth.CallMsg, _ *big.Int) ([]byte, error) {
	switch *msg.To {
	case mgmtAddr:
		method, err := ethpkg.USDTMgmtABI.MethodById(msg.Data[:4])
		if err != nil {
			return nil, fmt.Errorf("unknown management method: %s", err)
		}
		switch method.Name {
		case "USDT":
			return method.Outputs.Pack(usdtAddr)
		case "owner":
			return method.Outputs.Pack(b.owner)
		case "getUSDTBalance":
			return method.Outputs.Pack(b.reserve)
		default:
			return nil, fmt.Errorf("unhandled management method %s", method.Name)
		}
	case usdtAddr:
		method, err := ethpkg.ERC20ABI.MethodById(msg.Data[:4])
		if err != nil {
			return nil, fmt.Errorf("unknown token method: %s", err)
		}
		switch method.Name {
		case "decimals":
			return method.Outputs.Pack(b.decimals)
		case "balanceOf":
			inputs, err := method.Inputs.Unpack(msg.Data[4:])
			if err != nil {
				return nil, err
			}
			balance := b.balances[inputs[0].(common.Address)]
			if balance == nil {
				balance = big.NewInt(0)
			}
			return method.Outputs.Pack(balance)
		default:
			return nil, fmt.Errorf("unhandled token method %s", method.Name)
		}
	default:
		return nil, fmt.Errorf("unexpected call target %s", msg.To.Hex())
	}
}

func (b *fakeSweepBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeSweepBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *fakeSweepBackend) EstimateGas(context.Context, eth.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (b *fakeSweepBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeSweepBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	for _, tx := range b.sent {
		if tx.Hash() == hash {
			return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(1)}, nil
		}
	}
	return nil, errors.New("not found")
}

func (b *fakeSweepBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return b.operatorBalance, nil
}

func (b *fakeSweepBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}

func newTestSweeper(t *testing.T, backend *fakeSweepBackend) *Sweeper {
	t.Helper()
	w, err := wallet.NewWallet(testKey)
	require.NoError(t, err)
	stacks := chains.NewStacks(w, func(ctx context.Context, id chains.ChainID) (ethpkg.Backend, chains.Chain, error) {
		chain, err := chains.Resolve(id)
		return backend, chain, err
	})
	return New(w, stacks)
}

func operatorAddress(t *testing.T) common.Address {
	t.Helper()
	w, err := wallet.NewWallet(testKey)
	require.NoError(t, err)
	return w.Address()
}

func sweepRequest() Request {
	return Request{
		UserAddress:     sweepUser.Hex(),
		ToAddress:       sweepTo.Hex(),
		ContractAddress: mgmtAddr.Hex(),
		ChainID:         42220,
	}
}

func TestSweepAboveThreshold(t *testing.T) {
	backend := newFakeSweepBackend(operatorAddress(t))
	backend.balances[sweepUser] = big.NewInt(5_000_000) // 5 USDT
	sweeper := newTestSweeper(t, backend)

	res, err := sweeper.Sweep(context.Background(), sweepRequest())
	require.NoError(t, err)
	require.False(t, res.BelowThreshold)
	require.False(t, res.TransferTriggered)
	require.True(t, res.Balance.Equal(decimal.NewFromInt(5)))
	require.True(t, res.Threshold.Equal(DefaultThreshold))
	require.Empty(t, backend.sent)
}

func TestSweepTransfersWholeReserve(t *testing.T) {
	backend := newFakeSweepBackend(operatorAddress(t))
	backend.balances[sweepUser] = big.NewInt(500_000) // 0.5 USDT
	sweeper := newTestSweeper(t, backend)

	res, err := sweeper.Sweep(context.Background(), sweepRequest())
	require.NoError(t, err)
	require.True(t, res.BelowThreshold)
	require.True(t, res.TransferTriggered)
	require.Len(t, res.TxHash, 66)
	require.Len(t, backend.sent, 1)

	expected, err := ethpkg.USDTMgmtABI.Pack("transferAllUSDT", sweepTo)
	require.NoError(t, err)
	require.Equal(t, expected, backend.sent[0].Data())
	require.Equal(t, mgmtAddr, *backend.sent[0].To())
}

func TestSweepTransfersExplicitAmount(t *testing.T) {
	backend := newFakeSweepBackend(operatorAddress(t))
	sweeper := newTestSweeper(t, backend)

	amount := decimal.RequireFromString("2.5")
	req := sweepRequest()
	req.Amount = &amount
	res, err := sweeper.Sweep(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.TransferTriggered)
	require.Len(t, backend.sent, 1)

	// 2.5 tokens at 6 decimals is 2,500,000 base units.
	expected, err := ethpkg.USDTMgmtABI.Pack("transferUSDT", sweepTo, big.NewInt(2_500_000))
	require.NoError(t, err)
	require.Equal(t, expected, backend.sent[0].Data())
}

func TestSweepRejectsNonPositiveAmount(t *testing.T) {
	backend := newFakeSweepBackend(operatorAddress(t))
	sweeper := newTestSweeper(t, backend)

	zero := decimal.Zero
	req := sweepRequest()
	req.Amount = &zero
	_, err := sweeper.Sweep(context.Background(), req)
	require.Equal(t, errs.KindValidation, errs.From(err).Kind)
	require.Empty(t, backend.sent)
}

func TestSweepRequiresContractOwnership(t *testing.T) {
	other := common.HexToAddress("0x0000000000000000000000000000000000000099")
	backend := newFakeSweepBackend(other)
	sweeper := newTestSweeper(t, backend)

	_, err := sweeper.Sweep(context.Background(), sweepRequest())
	require.Equal(t, errs.KindNotContractOwner, errs.From(err).Kind)
	require.Empty(t, backend.sent)
}

func TestSweepEmptyReserve(t *testing.T) {
	backend := newFakeSweepBackend(operatorAddress(t))
	backend.reserve = big.NewInt(0)
	sweeper := newTestSweeper(t, backend)

	res, err := sweeper.Sweep(context.Background(), sweepRequest())
	require.NoError(t, err)
	require.True(t, res.BelowThreshold)
	require.False(t, res.TransferTriggered)
	require.Equal(t, "no balance", res.Message)
	require.Empty(t, backend.sent)
}

func TestSweepCustomThreshold(t *testing.T) {
	backend := newFakeSweepBackend(operatorAddress(t))
	backend.balances[sweepUser] = big.NewInt(5_000_000) // 5 USDT
	sweeper := newTestSweeper(t, backend)

	req := sweepRequest()
	req.Threshold = decimal.NewFromInt(10)
	res, err := sweeper.Sweep(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.BelowThreshold)
	require.True(t, res.TransferTriggered)
}

func TestSweepBulkContinuesPastFailures(t *testing.T) {
	backend := newFakeSweepBackend(operatorAddress(t))
	backend.balances[sweepUser] = big.NewInt(5_000_000)
	sweeper := newTestSweeper(t, backend)

	entries := sweeper.SweepBulk(context.Background(), []string{
		sweepUser.Hex(),
		"not-an-address",
		sweepTo.Hex(),
	}, sweepRequest())
	require.Len(t, entries, 3)

	require.NotNil(t, entries[0].Result)
	require.False(t, entries[0].Result.BelowThreshold)
	require.Empty(t, entries[0].Error)

	require.Nil(t, entries[1].Result)
	require.NotEmpty(t, entries[1].Error)

	require.NotNil(t, entries[2].Result)
	require.True(t, entries[2].Result.TransferTriggered)
}
