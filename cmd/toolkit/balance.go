package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/faucetdrops/backend/internal/chains"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Prints an account's native balance on a supported chain",
	Long:  `Prints an account's native balance on a supported chain`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, err := cmd.Flags().GetInt64("chain-id")
		if err != nil {
			return fmt.Errorf("parsing chain-id: %s", err)
		}
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("malformed address %q", args[0])
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
		defer cancel()

		registry := chains.NewRegistry()
		defer registry.Close()
		backend, chain, err := registry.Backend(ctx, chains.ChainID(chainID))
		if err != nil {
			return fmt.Errorf("connecting to chain %d: %s", chainID, err)
		}

		balance, err := backend.BalanceAt(ctx, common.HexToAddress(args[0]), nil)
		if err != nil {
			return fmt.Errorf("reading balance: %s", err)
		}

		native := new(big.Float).Quo(new(big.Float).SetInt(balance), big.NewFloat(1e18))
		fmt.Printf("%s %s on %s\n", native.Text('f', 6), chain.NativeSymbol, chain.Name)

		return nil
	},
}
