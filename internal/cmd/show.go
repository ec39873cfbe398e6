package cmd

import (
	"github.com/spf13/cobra"
)

var fileCmd = &cobra.Command{
	Use:   "file <file>",
	Short: "Show every entity in a file plus its file-level dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().File(args[0]))
	},
}

var entityCmd = &cobra.Command{
	Use:   "entity <name>",
	Short: "Show an entity with its incoming and outgoing edges",
	Long: `Resolve a symbol name and show the matching node(s) with every edge
in both directions.

Example:
  codegraph entity Server.start`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Entity(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(entityCmd)
}
