package chains

import (
	"context"
	"sync"

	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/ethereum"
	nonceimpl "github.com/faucetdrops/backend/pkg/nonce/impl"
	"github.com/faucetdrops/backend/pkg/wallet"
)

// ConnectFunc hands out a chain backend. Production wiring adapts
// Registry.Connect; tests inject fakes.
type ConnectFunc func(ctx context.Context, id ChainID) (ethereum.Backend, Chain, error)

// Stack bundles the components running for a specific chain: the backend
// connection, the transaction builder, and the operator submitter with its
// nonce tracker.
type Stack struct {
	Chain     Chain
	Backend   ethereum.Backend
	Builder   *ethereum.TxBuilder
	Submitter *ethereum.Submitter
}

// Stacks builds and caches one Stack per chain, lazily.
type Stacks struct {
	wallet  *wallet.Wallet
	connect ConnectFunc

	mu     sync.Mutex
	stacks map[ChainID]*Stack
}

// NewStacks creates the per-chain stack cache.
func NewStacks(w *wallet.Wallet, connect ConnectFunc) *Stacks {
	return &Stacks{
		wallet:  w,
		connect: connect,
		stacks:  make(map[ChainID]*Stack),
	}
}

// Get returns the stack for a supported chain, building it on first use.
func (s *Stacks) Get(ctx context.Context, id ChainID) (*Stack, error) {
	if !IsSupported(id) {
		return nil, errs.New(errs.KindUnsupportedChain, "chain %d is not supported", id)
	}

	s.mu.Lock()
	stack, ok := s.stacks[id]
	s.mu.Unlock()
	if ok {
		return stack, nil
	}

	backend, chain, err := s.connect(ctx, id)
	if err != nil {
		return nil, err
	}
	tracker := nonceimpl.NewLocalTracker(s.wallet, backend)
	stack = &Stack{
		Chain:     chain,
		Backend:   backend,
		Builder:   ethereum.NewTxBuilder(backend),
		Submitter: ethereum.NewSubmitter(backend, s.wallet, tracker, int64(id)),
	}

	s.mu.Lock()
	if existing, ok := s.stacks[id]; ok {
		stack = existing
	} else {
		s.stacks[id] = stack
	}
	s.mu.Unlock()
	return stack, nil
}
