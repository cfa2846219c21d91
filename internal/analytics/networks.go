package analytics

import (
	"github.com/faucetdrops/backend/internal/chains"
)

// Network is one analytics target: a chain plus the factory registries
// deployed on it.
type Network struct {
	ChainID   chains.ChainID `json:"chainId"`
	Name      string         `json:"name"`
	Factories []string       `json:"factories"`
}

// DefaultNetworks returns the compiled-in analytics targets. Deployments
// override them through configuration; a rebuild is not needed to add a
// factory.
func DefaultNetworks() []Network {
	return []Network{
		{
			ChainID: 42220,
			Name:    "Celo",
			Factories: []string{
				"0x9D6f441b31FBa22700bb3217229eb89b13FB618c",
				"0x4F5Cf906b9b2Bf4245DBa9F7d2d7F086a2b1BF2a",
			},
		},
		{
			ChainID: 42161,
			Name:    "Arbitrum",
			Factories: []string{
				"0x945431302922C9a51D9cf2b12Ad3b4FA34B475Ce",
			},
		},
		{
			ChainID: 1135,
			Name:    "Lisk",
			Factories: []string{
				"0x1FA2BbD50d9ddD1B6D1E8fBf0d964cB1Be434E04",
			},
		},
		{
			ChainID: 8453,
			Name:    "Base",
			Factories: []string{
				"0x9fBFcdbd4A1e8a6b224e293605d4C6ba64a02eF2",
			},
		},
	}
}

// networkColors is the fixed palette for the transactions chart, keyed
// by network name.
var networkColors = map[string]string{
	"Celo":     "#FCFF52",
	"Arbitrum": "#28A0F0",
	"Lisk":     "#4070F4",
	"Base":     "#0052FF",
}

// NetworkColor returns the chart color for a network, defaulting to a
// neutral gray for unknown names.
func NetworkColor(name string) string {
	if c, ok := networkColors[name]; ok {
		return c
	}
	return "#9CA3AF"
}
