package main

import (
	"github.com/spf13/cobra"
)

var cliName = "toolkit"

var rootCmd = &cobra.Command{
	Use:   cliName,
	Short: "toolkit is a CLI for faucet operators",
	Long:  `toolkit is a CLI for faucet operators executing mundane tasks`,
	Args:  cobra.ExactArgs(0),
}

func main() {
	rootCmd.Execute() //nolint
}

func init() {
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(dropcodeCmd)
	rootCmd.AddCommand(balanceCmd)

	walletCreateCmd.Flags().String("filename", "privatekey.hex", "Filename to store hex representation of private key")
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletAddressCmd)

	dropcodeCmd.AddCommand(dropcodeNewCmd)

	balanceCmd.Flags().Int64("chain-id", 42220, "chain id")
}
