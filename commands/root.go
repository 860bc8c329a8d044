// Package commands is the buildmart command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-buildmart/config"
	"go-buildmart/logger"
	"go-buildmart/utils"
)

var cfg config.App

var rootCmd = &cobra.Command{
	Use:           "buildmart",
	Short:         "BuildMart storefront API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Setup(cfg.IsProduction())
		utils.JwtKey = []byte(cfg.JWTSecret)
		utils.TokenTTL = cfg.JWTTTL
		utils.ShowStack = !cfg.IsProduction()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(routesCmd)
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
