package cmd

import (
	"github.com/spf13/cobra"
)

var impactName string

var impactCmd = &cobra.Command{
	Use:   "impact <file>",
	Short: "List the files a change to this file could affect",
	Long: `Walk file-level reverse dependencies breadth-first (up to five
levels) and report every file reached. With --name, keep only the files
that actually reference that symbol.

Examples:
  codegraph impact src/util.py
  codegraph impact src/util.py --name parse_config`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Impact(args[0], impactName))
	},
}

func init() {
	rootCmd.AddCommand(impactCmd)
	impactCmd.Flags().StringVar(&impactName, "name", "", "Restrict to files referencing this symbol")
}
