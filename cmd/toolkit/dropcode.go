package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faucetdrops/backend/pkg/dropcode"
)

var dropcodeCmd = &cobra.Command{
	Use:   "dropcode",
	Short: "Offers drop code utilities",
	Long:  `Offers drop code utilities`,
	Args:  cobra.ExactArgs(1),
}

var dropcodeNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generates a drop code",
	Long:  `Generates a drop code without storing it anywhere`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := dropcode.Generate()
		if err != nil {
			return fmt.Errorf("generating code: %s", err)
		}
		fmt.Println(code)
		return nil
	},
}
