// Package cmd contains the codegraph CLI: a thin front end over the
// engine API for scanning a project, feeding it edits, and running
// structural queries against the graph.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is the current version of codegraph.
var Version = "0.1.0"

// ErrNoGraph is returned by query commands when no snapshot exists yet;
// it maps to exit code 2 so hosts can distinguish "run scan first" from
// bad arguments.
var ErrNoGraph = errors.New("no graph found - run 'codegraph scan' first")

var (
	projectRoot  string
	snapshotPath string
	outputFormat string
	colorMode    string
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "Incremental code-graph engine CLI",
	Long: `codegraph keeps a whole-project dependency graph synchronized with
source files as they change and answers structural queries over it:
callers, callees, impact, cycles, dead code, paths.

Typical session:
  codegraph scan                  # build the graph for the current project
  codegraph callers parse_config  # who calls parse_config?
  codegraph impact src/auth.py    # what could a change here break?
  codegraph watch                 # keep the graph live while editing

Output is YAML by default; use --format json for machine consumption.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch colorMode {
		case "always":
			color.NoColor = false
		case "never":
			color.NoColor = true
		default:
			color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
		}
	},
}

// Execute runs the CLI. Exit codes: 0 success, 1 invalid arguments or
// internal failure, 2 no graph.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error: ")+err.Error())
		if errors.Is(err, ErrNoGraph) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "Snapshot path override (default: under the user config root)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "yaml", "Output format (yaml|json)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Colorize output (auto|always|never)")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

var forAgents bool

// commandInfo describes one command for agent discovery.
type commandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []flagInfo    `json:"flags,omitempty"`
	Subcommands []commandInfo `json:"subcommands,omitempty"`
}

type flagInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp prints machine-readable JSON describing every command,
// so agent hosts can discover the CLI surface without parsing help text.
func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(map[string]any{
		"version":      Version,
		"commands":     root.Subcommands,
		"global_flags": root.Flags,
	})
}

func buildCommandInfo(cmd *cobra.Command) commandInfo {
	info := commandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, flagInfo{
			Name:        f.Name,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})
	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}
	return info
}
