package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/krishi-mitra/internal/flows"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
)

var flowsJSON bool

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the available flows and their inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Listing compiles the flows but never calls a model.
		svc, err := flows.NewService(pipeline.NewRunner(nil, cfg.Model), nil, flows.Options{TTSModel: cfg.TTSModel, Voice: cfg.Voice})
		if err != nil {
			return err
		}

		infos := svc.List()
		if flowsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FLOW\tINPUTS\tDESCRIPTION")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%v\t%s\n", info.Name, info.Input.Names(), info.Description)
		}
		return w.Flush()
	},
}

func init() {
	flowsCmd.Flags().BoolVar(&flowsJSON, "json", false, "print flows with their input JSON Schemas")
	rootCmd.AddCommand(flowsCmd)
}
