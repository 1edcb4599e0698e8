package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "streamhub",
	Short: "Streamhub stream resolution engine",
	Long: `streamhub resolves content-addressed event chains into mutable streams.

Events are validated, linked against their stored chain, folded into stream
content and applied with a compare-and-swap on the stream tip.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
