package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/arcbyte/codegraph/internal/bridge"
	"github.com/arcbyte/codegraph/internal/engine"
)

// openEngine builds an engine for the --root project, restoring the
// snapshot if one exists.
func openEngine() (*engine.Engine, error) {
	return engine.New(projectRoot, engine.Options{SnapshotPath: snapshotPath})
}

// openGraph is openEngine plus the requirement that a graph already
// exists; query commands use this so an unscanned project exits 2.
func openGraph() (*engine.Engine, error) {
	eng, err := openEngine()
	if err != nil {
		return nil, err
	}
	if !eng.Restored() {
		eng.Close()
		return nil, ErrNoGraph
	}
	return eng, nil
}

// printResult writes v to stdout in the --format encoding.
func printResult(v any) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", outputFormat)
	}
}

var warnColor = color.New(color.FgYellow)

// printWarnings writes a report's warnings to stderr, colorized on TTYs.
func printWarnings(report bridge.EventReport) {
	for _, w := range report.Warnings {
		warnColor.Fprintf(os.Stderr, "warning [%s] %s\n", w.Kind, w.Message)
	}
}
