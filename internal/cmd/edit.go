package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arcbyte/codegraph/internal/bridge"
)

var editDelete bool

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Feed one file change through the incremental pipeline",
	Long: `Read a file from disk and process it as an edit, printing the
structured event report (entity delta counts, propagated files,
warnings). A missing file, or --delete, is processed as a removal.

This is the manual stand-in for a host's post-edit hook.

Examples:
  codegraph edit src/server.py
  codegraph edit src/old.py --delete`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Shutdown()

		rel := eng.RelPath(args[0])

		var report bridge.EventReport
		if editDelete {
			report, err = eng.ProcessChange(rel, nil, bridge.KindDelete)
		} else {
			data, readErr := os.ReadFile(args[0])
			if readErr != nil {
				// Missing file on edit is a delete.
				report, err = eng.ProcessChange(rel, nil, bridge.KindEdit)
			} else {
				text := string(data)
				report, err = eng.ProcessChange(rel, &text, bridge.KindEdit)
			}
		}
		if err != nil {
			return err
		}
		printWarnings(report)
		return printResult(report)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolVar(&editDelete, "delete", false, "Process the file as removed")
}
