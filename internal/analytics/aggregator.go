// Package analytics aggregates factory registry data across networks
// into cached chart documents.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	logger "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/faucetdrops/backend/internal/chains"
	"github.com/faucetdrops/backend/pkg/errs"
	"github.com/faucetdrops/backend/pkg/ethereum"
	"github.com/faucetdrops/backend/pkg/store"
)

var log = logger.With().Str("component", "analytics").Logger()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// timeNow is swapped in tests.
var timeNow = time.Now

// Cache keys. Each key holds at most one document; writes upsert.
const (
	KeyDashboard    = "dashboard"
	KeyFaucets      = "faucets"
	KeyTransactions = "transactions"
	KeyUsers        = "users"
	KeyClaims       = "claims"
	KeyLastUpdated  = "last_updated"
	KeyUpdateStatus = "update_status"
)

// Update run states stored under KeyUpdateStatus.
const (
	StateUpdating  = "updating"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// ErrUpdateInProgress is returned when a run is requested while another
// is still executing.
var ErrUpdateInProgress = errs.New(errs.KindInternal, "analytics update already in progress")

// Status is the update-status document.
type Status struct {
	State       string    `json:"state"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Aggregator runs analytics updates. At most one run executes at a
// time; the cache is single-writer.
type Aggregator struct {
	connect   chains.ConnectFunc
	cache     store.CacheStore
	networks  []Network
	synthetic bool
	running   *atomic.Bool
}

// New creates an aggregator over the given networks. synthetic controls
// the backfilled users in the users chart.
func New(connect chains.ConnectFunc, cache store.CacheStore, networks []Network, synthetic bool) *Aggregator {
	if len(networks) == 0 {
		networks = DefaultNetworks()
	}
	return &Aggregator{
		connect:   connect,
		cache:     cache,
		networks:  networks,
		synthetic: synthetic,
		running:   atomic.NewBool(false),
	}
}

// Run executes one update: collect from every network, aggregate, and
// write the cache documents. A concurrent call returns
// ErrUpdateInProgress without touching the cache.
func (a *Aggregator) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrUpdateInProgress
	}
	defer a.running.Store(false)

	started := timeNow().UTC()
	a.writeStatus(ctx, Status{State: StateUpdating, StartedAt: started})

	data, err := a.collect(ctx)
	if err != nil {
		a.writeStatus(ctx, Status{State: StateFailed, StartedAt: started, CompletedAt: timeNow().UTC(), Error: err.Error()})
		return fmt.Errorf("collecting analytics data: %s", err)
	}
	if err := a.writeCharts(ctx, data, started); err != nil {
		a.writeStatus(ctx, Status{State: StateFailed, StartedAt: started, CompletedAt: timeNow().UTC(), Error: err.Error()})
		return fmt.Errorf("writing analytics cache: %s", err)
	}

	a.writeStatus(ctx, Status{State: StateCompleted, StartedAt: started, CompletedAt: timeNow().UTC()})
	log.Info().Dur("took", timeNow().Sub(started)).Msg("analytics update completed")
	return nil
}

// Running reports whether an update is currently executing.
func (a *Aggregator) Running() bool {
	return a.running.Load()
}

// Read returns the cached document for key.
func (a *Aggregator) Read(ctx context.Context, key string) ([]byte, time.Time, error) {
	doc, updatedAt, err := a.cache.Get(ctx, key)
	if err != nil {
		return nil, time.Time{}, errs.New(errs.KindCacheUnavailable, "reading analytics cache: %s", err)
	}
	if doc == nil {
		return nil, time.Time{}, errs.New(errs.KindNotFound, "no analytics document for %q", key)
	}
	return doc, updatedAt, nil
}

// collect fans out over the networks, one goroutine each.
func (a *Aggregator) collect(ctx context.Context) ([]networkData, error) {
	results := make([]networkData, len(a.networks))
	g, gctx := errgroup.WithContext(ctx)
	for i, network := range a.networks {
		i, network := i, network
		g.Go(func() error {
			data, err := a.collectNetwork(gctx, network)
			if err != nil {
				return fmt.Errorf("network %s: %s", network.Name, err)
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Aggregator) collectNetwork(ctx context.Context, network Network) (networkData, error) {
	backend, chain, err := a.connect(ctx, network.ChainID)
	if err != nil {
		return networkData{}, err
	}

	data := networkData{Network: network}
	tokens := newTokenResolver(backend, chain.NativeSymbol)

	for _, raw := range network.Factories {
		if !common.IsHexAddress(raw) {
			return networkData{}, fmt.Errorf("malformed factory address %q", raw)
		}
		addr := common.HexToAddress(raw)

		code, err := backend.CodeAt(ctx, addr, nil)
		if err != nil {
			return networkData{}, fmt.Errorf("checking code at %s: %s", addr.Hex(), err)
		}
		if len(code) == 0 {
			log.Debug().Str("factory", addr.Hex()).Str("network", network.Name).Msg("factory has no code, skipping")
			continue
		}

		factory := ethereum.NewFactory(backend, addr)
		faucets, err := factory.AllFaucets(ctx)
		if err != nil {
			return networkData{}, fmt.Errorf("getAllFaucets on %s: %s", addr.Hex(), err)
		}
		for _, f := range faucets {
			data.Faucets = append(data.Faucets, f.Hex())
		}

		txs, err := factory.AllTransactions(ctx)
		if err != nil {
			return networkData{}, fmt.Errorf("getAllTransactions on %s: %s", addr.Hex(), err)
		}
		for _, tx := range txs {
			symbol, decimals := tokens.resolve(ctx, tx.FaucetAddress, tx.IsEther)
			data.Txs = append(data.Txs, txRecord{
				Network:       network.Name,
				FaucetAddress: tx.FaucetAddress.Hex(),
				Type:          tx.TransactionType,
				Initiator:     tx.Initiator.Hex(),
				Amount:        decimal.NewFromBigInt(tx.Amount, -int32(decimals)),
				TokenSymbol:   symbol,
				Timestamp:     tx.Timestamp.Int64(),
			})
		}
	}
	return data, nil
}

// tokenResolver memoizes per-faucet token metadata within one run.
type tokenResolver struct {
	backend      ethereum.CallBackend
	nativeSymbol string
	byFaucet     map[common.Address]tokenInfo
}

type tokenInfo struct {
	symbol   string
	decimals uint8
}

func newTokenResolver(backend ethereum.CallBackend, nativeSymbol string) *tokenResolver {
	return &tokenResolver{
		backend:      backend,
		nativeSymbol: nativeSymbol,
		byFaucet:     map[common.Address]tokenInfo{},
	}
}

// resolve returns the token symbol and decimals funding the faucet. A
// resolution failure degrades to an empty symbol rather than failing the
// run.
func (r *tokenResolver) resolve(ctx context.Context, faucetAddr common.Address, isEther bool) (string, uint8) {
	if isEther {
		return r.nativeSymbol, 18
	}
	if info, ok := r.byFaucet[faucetAddr]; ok {
		return info.symbol, info.decimals
	}

	info := tokenInfo{decimals: 18}
	faucet := ethereum.NewFaucet(r.backend, faucetAddr)
	if tokenAddr, err := faucet.Token(ctx); err == nil {
		token := ethereum.NewERC20(r.backend, tokenAddr)
		if symbol, err := token.Symbol(ctx); err == nil {
			info.symbol = symbol
		}
		if decimals, err := token.Decimals(ctx); err == nil {
			info.decimals = decimals
		}
	} else {
		log.Debug().Str("faucet", faucetAddr.Hex()).Err(err).Msg("token resolution failed")
	}
	r.byFaucet[faucetAddr] = info
	return info.symbol, info.decimals
}

func (a *Aggregator) writeCharts(ctx context.Context, data []networkData, started time.Time) error {
	var allTxs []txRecord
	totalFaucets := 0
	for _, d := range data {
		allTxs = append(allTxs, d.Txs...)
		totalFaucets += len(d.Faucets)
	}

	faucets := buildFaucetsChart(data)
	users := buildUsersChart(allTxs, a.synthetic)
	claims := buildClaimsChart(allTxs)
	transactions := buildTransactionsChart(data)

	totalClaims := claims.TotalClaims
	if a.synthetic {
		// Each backfilled user carries one claim in the headline total,
		// matching the users series.
		totalClaims += syntheticUserCount
	}

	dashboard := Dashboard{
		TotalFaucets:      totalFaucets,
		TotalTransactions: transactions.Total,
		TotalClaims:       totalClaims,
		UniqueUsers:       users.TotalUsers,
		Networks:          len(data),
		TopTokens:         buildTokenVolumes(allTxs),
		LastUpdated:       started,
	}

	entries := []struct {
		key string
		doc interface{}
	}{
		{KeyFaucets, faucets},
		{KeyUsers, users},
		{KeyClaims, claims},
		{KeyTransactions, transactions},
		{KeyDashboard, dashboard},
		{KeyLastUpdated, map[string]time.Time{"lastUpdated": timeNow().UTC()}},
	}
	for _, e := range entries {
		doc, err := json.Marshal(e.doc)
		if err != nil {
			return fmt.Errorf("marshaling %s: %s", e.key, err)
		}
		if err := a.cache.Put(ctx, e.key, doc); err != nil {
			return fmt.Errorf("storing %s: %s", e.key, err)
		}
	}
	return nil
}

// writeStatus is best-effort; a failing status write never masks the
// run's own outcome.
func (a *Aggregator) writeStatus(ctx context.Context, status Status) {
	doc, err := json.Marshal(status)
	if err != nil {
		log.Error().Err(err).Msg("marshaling update status")
		return
	}
	if err := a.cache.Put(ctx, KeyUpdateStatus, doc); err != nil {
		log.Error().Err(err).Msg("storing update status")
	}
}
