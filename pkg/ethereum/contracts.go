package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	eth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CallBackend is the read-only chain surface used for view calls.
type CallBackend interface {
	CallContract(ctx context.Context, msg eth.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

const faucetABIJSON = `[
	{"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"isAdmin","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"BACKEND","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"hasClaimed","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"hasCustomClaimAmount","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"getCustomClaimAmount","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"tokenAddress","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"setWhitelist","stateMutability":"nonpayable","inputs":[{"type":"address"},{"type":"bool"}],"outputs":[]},
	{"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[{"type":"address[]"}],"outputs":[]}
]`

const factoryABIJSON = `[
	{"type":"function","name":"getAllFaucets","stateMutability":"view","inputs":[],"outputs":[{"type":"address[]"}]},
	{"type":"function","name":"getAllTransactions","stateMutability":"view","inputs":[],"outputs":[{"type":"tuple[]","components":[
		{"name":"faucetAddress","type":"address"},
		{"name":"transactionType","type":"string"},
		{"name":"initiator","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"isEther","type":"bool"},
		{"name":"timestamp","type":"uint256"}
	]}]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]}
]`

const usdtMgmtABIJSON = `[
	{"type":"function","name":"USDT","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"getUSDTBalance","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"transferUSDT","stateMutability":"nonpayable","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[]},
	{"type":"function","name":"transferAllUSDT","stateMutability":"nonpayable","inputs":[{"type":"address"}],"outputs":[]}
]`

var (
	// FaucetABI is the minimal faucet contract surface the relayer consumes.
	FaucetABI = mustParseABI(faucetABIJSON)
	// FactoryABI is the faucet factory registry surface used by analytics.
	FactoryABI = mustParseABI(factoryABIJSON)
	// ERC20ABI is the token metadata/balance surface.
	ERC20ABI = mustParseABI(erc20ABIJSON)
	// USDTMgmtABI is the USDT management contract surface used by the sweeper.
	USDTMgmtABI = mustParseABI(usdtMgmtABIJSON)
)

var (
	errNotAddressSlice     = fmt.Errorf("output is not an address slice")
	errNotTransactionSlice = fmt.Errorf("output is not a transaction tuple slice")
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parsing contract ABI: %s", err))
	}
	return parsed
}

// Caller performs view calls against one contract.
type Caller struct {
	abi     abi.ABI
	addr    common.Address
	backend CallBackend
}

// NewCaller creates a view caller for the contract at addr.
func NewCaller(backend CallBackend, contractABI abi.ABI, addr common.Address) *Caller {
	return &Caller{abi: contractABI, addr: addr, backend: backend}
}

// Address returns the contract address.
func (c *Caller) Address() common.Address {
	return c.addr
}

// Call executes a view method and returns the unpacked outputs.
func (c *Caller) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s call: %s", method, err)
	}
	output, err := c.backend.CallContract(ctx, eth.CallMsg{To: &c.addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %s", method, err)
	}
	results, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s output: %s", method, err)
	}
	return results, nil
}

// Bool calls a view method returning a single bool.
func (c *Caller) Bool(ctx context.Context, method string, args ...interface{}) (bool, error) {
	results, err := c.Call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	v, ok := results[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s did not return a bool", method)
	}
	return v, nil
}

// AddressOf calls a view method returning a single address.
func (c *Caller) AddressOf(ctx context.Context, method string, args ...interface{}) (common.Address, error) {
	results, err := c.Call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	v, ok := results[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s did not return an address", method)
	}
	return v, nil
}

// BigInt calls a view method returning a single uint256.
func (c *Caller) BigInt(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	results, err := c.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s did not return a uint256", method)
	}
	return v, nil
}

// String calls a view method returning a single string.
func (c *Caller) String(ctx context.Context, method string, args ...interface{}) (string, error) {
	results, err := c.Call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	v, ok := results[0].(string)
	if !ok {
		return "", fmt.Errorf("%s did not return a string", method)
	}
	return v, nil
}

// Uint8 calls a view method returning a single uint8.
func (c *Caller) Uint8(ctx context.Context, method string, args ...interface{}) (uint8, error) {
	results, err := c.Call(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	v, ok := results[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%s did not return a uint8", method)
	}
	return v, nil
}

// Pack encodes a state-changing method invocation into a Call ready for
// the transaction builder.
func (c *Caller) Pack(method string, args ...interface{}) (Call, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return Call{}, fmt.Errorf("packing %s call: %s", method, err)
	}
	return Call{To: c.addr, Data: data}, nil
}
