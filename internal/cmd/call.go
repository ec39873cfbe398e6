package cmd

import (
	"github.com/spf13/cobra"
)

var callersCmd = &cobra.Command{
	Use:   "callers <name>",
	Short: "List everything that calls, imports, inherits or references a symbol",
	Long: `Resolve a symbol name and list every incoming edge, with the source
node identity and the confidence the edge was resolved at.

The name may be a full node id (file.py::Class.method), a bare name, or
a scope suffix (Class.method).

Examples:
  codegraph callers parse_config
  codegraph callers Server.start
  codegraph callers src/auth.py::login`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Callers(args[0]))
	},
}

var calleesCmd = &cobra.Command{
	Use:   "callees <name>",
	Short: "List everything a symbol calls, imports, inherits or references",
	Long: `Resolve a symbol name and list every outgoing edge. Targets that
never resolved are reported with their "unresolved:" placeholder id and
low confidence.

Examples:
  codegraph callees main
  codegraph callees Server.handle`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openGraph()
		if err != nil {
			return err
		}
		defer eng.Close()
		return printResult(eng.Queries().Callees(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(callersCmd)
	rootCmd.AddCommand(calleesCmd)
}
