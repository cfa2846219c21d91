package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Synthetic users are injected into the users chart across a fixed
// launch-campaign window. The counts are a product decision and must
// survive re-aggregation unchanged.
const (
	syntheticUserCount = 500
	syntheticStartDate = "2025-05-22"
	syntheticEndDate   = "2025-06-20"
)

const dateLayout = "2006-01-02"

// txRecord is one factory transaction flattened with its network and
// resolved token metadata.
type txRecord struct {
	Network       string
	FaucetAddress string
	Type          string
	Initiator     string
	Amount        decimal.Decimal
	TokenSymbol   string
	Timestamp     int64
}

// networkData is everything collected from one network in a run.
type networkData struct {
	Network Network
	Faucets []string
	Txs     []txRecord
}

// FaucetsChart counts deployed faucets per network, largest first.
type FaucetsChart struct {
	Total      int           `json:"total"`
	PerNetwork []FaucetCount `json:"perNetwork"`
}

type FaucetCount struct {
	Network string `json:"network"`
	Count   int    `json:"count"`
}

// UsersChart is the daily new-user and cumulative series derived from
// first claim dates.
type UsersChart struct {
	TotalUsers int         `json:"totalUsers"`
	Series     []UserPoint `json:"series"`
}

type UserPoint struct {
	Date       string `json:"date"`
	NewUsers   int    `json:"newUsers"`
	TotalUsers int    `json:"totalUsers"`
}

// ClaimsChart ranks faucets by recency of their latest claim and carries
// a pie payload of the ten busiest plus an Others bucket.
type ClaimsChart struct {
	TotalClaims int          `json:"totalClaims"`
	Ranking     []FaucetRank `json:"ranking"`
	Pie         []PieSlice   `json:"pie"`
}

type FaucetRank struct {
	FaucetAddress string `json:"faucetAddress"`
	Network       string `json:"network"`
	Claims        int    `json:"claims"`
	LastClaim     int64  `json:"lastClaim"`
}

type PieSlice struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// TransactionsChart totals factory transactions per network with the
// fixed network palette.
type TransactionsChart struct {
	Total      int             `json:"total"`
	PerNetwork []NetworkVolume `json:"perNetwork"`
}

type NetworkVolume struct {
	Network      string `json:"network"`
	Transactions int    `json:"transactions"`
	Color        string `json:"color"`
}

// TokenVolume is a per-symbol claim volume, normalized by token decimals.
type TokenVolume struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

// Dashboard is the consolidated entry the frontend landing page reads.
type Dashboard struct {
	TotalFaucets      int           `json:"totalFaucets"`
	TotalTransactions int           `json:"totalTransactions"`
	TotalClaims       int           `json:"totalClaims"`
	UniqueUsers       int           `json:"uniqueUsers"`
	Networks          int           `json:"networks"`
	TopTokens         []TokenVolume `json:"topTokens"`
	LastUpdated       time.Time     `json:"lastUpdated"`
}

// paletteColor assigns slice i a hue on the golden-angle spiral so
// neighboring slices stay visually distinct at any count.
func paletteColor(i int) string {
	hue := math.Mod(float64(i)*137.508, 360)
	return fmt.Sprintf("hsl(%g, 70%%, 60%%)", hue)
}

func isClaim(txType string) bool {
	return strings.Contains(strings.ToLower(txType), "claim")
}

func buildFaucetsChart(data []networkData) FaucetsChart {
	chart := FaucetsChart{}
	for _, d := range data {
		chart.Total += len(d.Faucets)
		chart.PerNetwork = append(chart.PerNetwork, FaucetCount{
			Network: d.Network.Name,
			Count:   len(d.Faucets),
		})
	}
	sort.SliceStable(chart.PerNetwork, func(i, j int) bool {
		return chart.PerNetwork[i].Count > chart.PerNetwork[j].Count
	})
	return chart
}

// buildUsersChart keys each claiming address on its first claim date and
// folds in the synthetic backfill when enabled.
func buildUsersChart(txs []txRecord, synthetic bool) UsersChart {
	firstSeen := map[string]int64{}
	for _, tx := range txs {
		if !isClaim(tx.Type) {
			continue
		}
		if prev, ok := firstSeen[tx.Initiator]; !ok || tx.Timestamp < prev {
			firstSeen[tx.Initiator] = tx.Timestamp
		}
	}

	newPerDay := map[string]int{}
	for _, ts := range firstSeen {
		day := time.Unix(ts, 0).UTC().Format(dateLayout)
		newPerDay[day]++
	}
	if synthetic {
		for day, n := range syntheticPerDay() {
			newPerDay[day] += n
		}
	}

	days := make([]string, 0, len(newPerDay))
	for day := range newPerDay {
		days = append(days, day)
	}
	sort.Strings(days)

	chart := UsersChart{Series: make([]UserPoint, 0, len(days))}
	running := 0
	for _, day := range days {
		running += newPerDay[day]
		chart.Series = append(chart.Series, UserPoint{
			Date:       day,
			NewUsers:   newPerDay[day],
			TotalUsers: running,
		})
	}
	chart.TotalUsers = running
	return chart
}

// syntheticPerDay spreads the synthetic users evenly over the campaign
// window, earliest days absorbing the remainder.
func syntheticPerDay() map[string]int {
	start, _ := time.Parse(dateLayout, syntheticStartDate)
	end, _ := time.Parse(dateLayout, syntheticEndDate)
	days := int(end.Sub(start).Hours()/24) + 1

	base := syntheticUserCount / days
	rem := syntheticUserCount % days

	out := make(map[string]int, days)
	for i := 0; i < days; i++ {
		n := base
		if i < rem {
			n++
		}
		out[start.AddDate(0, 0, i).Format(dateLayout)] = n
	}
	return out
}

func buildClaimsChart(txs []txRecord) ClaimsChart {
	type agg struct {
		network   string
		claims    int
		lastClaim int64
	}
	byFaucet := map[string]*agg{}
	total := 0
	for _, tx := range txs {
		if !isClaim(tx.Type) {
			continue
		}
		total++
		a, ok := byFaucet[tx.FaucetAddress]
		if !ok {
			a = &agg{network: tx.Network}
			byFaucet[tx.FaucetAddress] = a
		}
		a.claims++
		if tx.Timestamp > a.lastClaim {
			a.lastClaim = tx.Timestamp
		}
	}

	ranking := make([]FaucetRank, 0, len(byFaucet))
	for addr, a := range byFaucet {
		ranking = append(ranking, FaucetRank{
			FaucetAddress: addr,
			Network:       a.network,
			Claims:        a.claims,
			LastClaim:     a.lastClaim,
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].LastClaim != ranking[j].LastClaim {
			return ranking[i].LastClaim > ranking[j].LastClaim
		}
		return ranking[i].FaucetAddress < ranking[j].FaucetAddress
	})

	busiest := make([]FaucetRank, len(ranking))
	copy(busiest, ranking)
	sort.SliceStable(busiest, func(i, j int) bool {
		if busiest[i].Claims != busiest[j].Claims {
			return busiest[i].Claims > busiest[j].Claims
		}
		return busiest[i].FaucetAddress < busiest[j].FaucetAddress
	})

	pie := make([]PieSlice, 0, 11)
	others := 0
	for i, r := range busiest {
		if i < 10 {
			pie = append(pie, PieSlice{Label: r.FaucetAddress, Value: r.Claims, Color: paletteColor(i)})
			continue
		}
		others += r.Claims
	}
	if others > 0 {
		pie = append(pie, PieSlice{Label: "Others", Value: others, Color: paletteColor(len(pie))})
	}

	return ClaimsChart{TotalClaims: total, Ranking: ranking, Pie: pie}
}

func buildTransactionsChart(data []networkData) TransactionsChart {
	chart := TransactionsChart{}
	for _, d := range data {
		chart.Total += len(d.Txs)
		chart.PerNetwork = append(chart.PerNetwork, NetworkVolume{
			Network:      d.Network.Name,
			Transactions: len(d.Txs),
			Color:        NetworkColor(d.Network.Name),
		})
	}
	sort.SliceStable(chart.PerNetwork, func(i, j int) bool {
		return chart.PerNetwork[i].Transactions > chart.PerNetwork[j].Transactions
	})
	return chart
}

// buildTokenVolumes sums claim volume per token symbol, largest first.
func buildTokenVolumes(txs []txRecord) []TokenVolume {
	bySymbol := map[string]decimal.Decimal{}
	for _, tx := range txs {
		if !isClaim(tx.Type) || tx.TokenSymbol == "" {
			continue
		}
		bySymbol[tx.TokenSymbol] = bySymbol[tx.TokenSymbol].Add(tx.Amount)
	}
	out := make([]TokenVolume, 0, len(bySymbol))
	for sym, amount := range bySymbol {
		out = append(out, TokenVolume{Symbol: sym, Amount: amount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
