package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/faucetdrops/backend/pkg/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Offers wallet utilities",
	Long:  `Offers wallet utilities`,
	Args:  cobra.ExactArgs(1),
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates an operator wallet",
	Long:  `Creates an operator wallet`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename, err := cmd.Flags().GetString("filename")
		if err != nil {
			return errors.New("failed to parse filename")
		}
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate key: %s", err)
		}
		hexKey := hexutil.Encode(crypto.FromECDSA(privateKey))[2:]

		if err := os.WriteFile(filename, []byte(hexKey), 0o644); err != nil {
			return fmt.Errorf("writing to file %s: %s", filename, err)
		}
		w, err := wallet.NewWallet(hexKey)
		if err != nil {
			return fmt.Errorf("loading generated key: %s", err)
		}

		fmt.Printf("Wallet address %s created\n", w.Address().Hex())
		fmt.Printf("Private key saved in %s\n", filename)

		return nil
	},
}

var walletAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Returns the address of an operator wallet",
	Long:  `Returns the address of an operator wallet`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.NewWallet(args[0])
		if err != nil {
			return fmt.Errorf("decode key: %s", err)
		}

		fmt.Printf("Wallet address %s\n", w.Address().Hex())

		return nil
	},
}
