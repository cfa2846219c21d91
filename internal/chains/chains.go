// Package chains is the registry of EVM networks the backend serves.
// The supported set is the ground truth shared with the frontend: requests
// naming a chain outside of it fail validation before touching any node.
package chains

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/ethereum"
)

var log = logger.With().Str("component", "chains").Logger()

// ChainID is a supported EVM network identifier.
type ChainID int64

// Chain describes a supported network.
type Chain struct {
	ID            ChainID
	Name          string
	NativeSymbol  string
	envAlias      string
	defaultRPCURL string
}

var supported = map[ChainID]Chain{
	42220: {42220, "Celo", "CELO", "CELO", "https://forno.celo.org"},
	42161: {42161, "Arbitrum One", "ETH", "ARBITRUM", "https://arb1.arbitrum.io/rpc"},
	1135:  {1135, "Lisk", "ETH", "LISK", "https://rpc.api.lisk.com"},
	8453:  {8453, "Base", "ETH", "BASE", "https://mainnet.base.org"},
	44787: {44787, "Celo Alfajores", "CELO", "CELO_ALFAJORES", "https://alfajores-forno.celo-testnet.org"},
	4202:  {4202, "Lisk Sepolia", "ETH", "LISK_SEPOLIA", "https://rpc.sepolia-api.lisk.com"},
	84532: {84532, "Base Sepolia", "ETH", "BASE_SEPOLIA", "https://sepolia.base.org"},
}

// Supported returns the supported chain ids in ascending order.
func Supported() []ChainID {
	ids := make([]ChainID, 0, len(supported))
	for id := range supported {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsSupported reports whether the chain id belongs to the supported set.
func IsSupported(id ChainID) bool {
	_, ok := supported[id]
	return ok
}

// Resolve returns the chain descriptor for id.
func Resolve(id ChainID) (Chain, error) {
	chain, ok := supported[id]
	if !ok {
		return Chain{}, errs.New(errs.KindUnsupportedChain, "chain %d is not supported", id)
	}
	return chain, nil
}

// RPCURL resolves the RPC endpoint for a chain. Lookup order:
// RPC_URL_<chainId>, the legacy per-network alias (e.g. RPC_URL_CELO),
// RPC_URL, then the compiled-in default.
func RPCURL(id ChainID) (string, error) {
	chain, err := Resolve(id)
	if err != nil {
		return "", err
	}
	if url := os.Getenv(fmt.Sprintf("RPC_URL_%d", id)); url != "" {
		return url, nil
	}
	if url := os.Getenv("RPC_URL_" + chain.envAlias); url != "" {
		return url, nil
	}
	if url := os.Getenv("RPC_URL"); url != "" {
		return url, nil
	}
	if chain.defaultRPCURL != "" {
		return chain.defaultRPCURL, nil
	}
	return "", errs.New(errs.KindRpcUnavailable, "no RPC URL configured for chain %d", id)
}

// Registry hands out connections to supported networks. Connections are
// dialed lazily, verified against the expected chain id, and reused.
type Registry struct {
	mu    sync.Mutex
	conns map[ChainID]*ethclient.Client
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[ChainID]*ethclient.Client)}
}

// Connect returns a live connection to the chain, dialing if needed.
// A node that does not answer, or answers with the wrong chain id, fails
// fast with RpcUnavailable.
func (r *Registry) Connect(ctx context.Context, id ChainID) (*ethclient.Client, Chain, error) {
	chain, err := Resolve(id)
	if err != nil {
		return nil, Chain{}, err
	}

	r.mu.Lock()
	conn, ok := r.conns[id]
	r.mu.Unlock()
	if ok {
		return conn, chain, nil
	}

	url, err := RPCURL(id)
	if err != nil {
		return nil, Chain{}, err
	}

	conn, err = ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, Chain{}, errs.New(errs.KindRpcUnavailable, "dialing %s node: %s", chain.Name, err)
	}
	gotID, err := conn.ChainID(ctx)
	if err != nil {
		conn.Close()
		return nil, Chain{}, errs.New(errs.KindRpcUnavailable, "%s node not responding: %s", chain.Name, err)
	}
	if gotID.Int64() != int64(id) {
		conn.Close()
		return nil, Chain{}, errs.New(errs.KindRpcUnavailable,
			"%s endpoint reports chain %d, want %d", chain.Name, gotID.Int64(), id)
	}

	r.mu.Lock()
	if existing, ok := r.conns[id]; ok {
		// lost the race, keep the first connection
		r.mu.Unlock()
		conn.Close()
		return existing, chain, nil
	}
	r.conns[id] = conn
	r.mu.Unlock()

	log.Info().Int64("chainId", int64(id)).Str("chain", chain.Name).Msg("connected to chain")
	return conn, chain, nil
}

// Backend adapts Connect to the ConnectFunc shape used by the per-chain
// stacks.
func (r *Registry) Backend(ctx context.Context, id ChainID) (ethereum.Backend, Chain, error) {
	conn, chain, err := r.Connect(ctx, id)
	if err != nil {
		return nil, Chain{}, err
	}
	return conn, chain, nil
}

// Close closes every dialed connection.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, conn := range r.conns {
		conn.Close()
		delete(r.conns, id)
	}
}
