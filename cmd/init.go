package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/krishi-mitra/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize krishi configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the model provider, HTTP port and data directory, and writes a .krishi.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
