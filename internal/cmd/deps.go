package cmd

import (
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "List the files a file depends on",
	Long: `List the distinct files targeted by edges leaving any node defined
in the given file.

Example:
  codegraph deps src/server.py`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Deps(args[0]))
	},
}

var rdepsCmd = &cobra.Command{
	Use:   "rdeps <file>",
	Short: "List the files that depend on a file",
	Long: `List the distinct files whose nodes have edges landing on a node
defined in the given file.

Example:
  codegraph rdeps src/util.py`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().RDeps(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(rdepsCmd)
}
