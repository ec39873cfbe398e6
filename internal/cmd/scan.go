package cmd

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Build or refresh the graph for the project",
	Long: `Walk the project root, extract entities from every supported source
file, and build the dependency graph. The scan honors the configured
exclude globs plus auto-detected dependency directories, and is bounded
by the configured file-count ceiling and wall-clock budget; files left
unscanned enter the graph on their first edit.

Example:
  codegraph scan --root ~/src/myproject`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Shutdown()

		res, err := eng.Scan()
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
