package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "storefront-cli",
	Short:         "operator tooling for the storefront service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logging.Setup(cfg.Environment, cfg.LogLevel)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, simulatePaymentCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Errorf("storefront-cli: %v", err)
		os.Exit(1)
	}
}
