package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/krishi-mitra/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "krishi",
	Short: "AI farming assistant: crop advice, disease diagnosis, weather and market prices",
	Long: `Krishi Mitra answers farmers' questions with typed AI flows: crop advice,
plant disease identification from photos, speech transcription and synthesis,
weather with farming recommendations, and mandi prices. Flows are served over
HTTP, exposed to AI agents via MCP, or run directly from the command line.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
