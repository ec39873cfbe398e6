package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arcbyte/codegraph/internal/query"
)

var deadCmd = &cobra.Command{
	Use:   "dead",
	Short: "Find functions and classes nothing references",
	Long: `List function and class nodes with no incoming edges of any kind,
excluding explicitly exported symbols and names matching the configured
entry-point patterns (^(main|run|start|handler|init)$ by default).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Dead())
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <src> <dst>",
	Short: "Show one shortest edge path between two symbols",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Path(args[0], args[1]))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search node names by regex",
	Long: `Scan node names for a regex match. Patterns without explicit
anchors are matched at word boundaries, so "parse" does not match
"reparse_all".

Examples:
  codegraph search parse
  codegraph search '^handle_'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Search(args[0]))
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Report file-level dependency cycles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Cycles())
	},
}

var exportsCmd = &cobra.Command{
	Use:   "exports <file>",
	Short: "Show a file's exported-symbol set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Exports(args[0]))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node, edge and file counts with per-kind breakdowns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Stats())
	},
}

var summaryTopK int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Whole-graph overview: counts, rankings, entry points, cycles",
	Long: `Report graph counts, the top-K nodes by in-degree, out-degree,
PageRank and betweenness centrality, entry-point candidates, and any
file-level cycles.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Summary(summaryTopK))
	},
}

func init() {
	rootCmd.AddCommand(deadCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().IntVar(&summaryTopK, "top", query.DefaultTopK, "How many nodes each ranking reports")
}
