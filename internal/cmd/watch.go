package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/arcbyte/codegraph/internal/bridge"
	"github.com/arcbyte/codegraph/internal/engine"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project and keep the graph live",
	Long: `Watch the project tree for file writes, creates and removals, and
feed each change through the incremental pipeline. This is the
development stand-in for a host that calls the engine from its own edit
hooks. Stop with Ctrl-C; the graph is flushed on exit.

Example:
  codegraph watch --root ~/src/myproject`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	if !eng.Restored() {
		if _, err := eng.Scan(); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, projectRoot); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	fmt.Fprintln(os.Stderr, "watching for changes (Ctrl-C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleWatchEvent(eng, watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warnColor.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-stop:
			fmt.Fprintln(os.Stderr, "stopping")
			return nil
		}
	}
}

// addWatchDirs registers every directory under root, since fsnotify
// watches are not recursive.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || d.Name() == "node_modules" || d.Name() == "vendor" {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			return fmt.Errorf("watching %s: %w", path, addErr)
		}
		return nil
	})
}

func handleWatchEvent(eng *engine.Engine, watcher *fsnotify.Watcher, event fsnotify.Event) {
	rel := eng.RelPath(event.Name)

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		report, err := eng.ProcessChange(rel, nil, bridge.KindDelete)
		if err == nil {
			printWarnings(report)
		}
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if event.Op.Has(fsnotify.Create) {
				watcher.Add(event.Name)
			}
			return
		}
		data, err := os.ReadFile(event.Name)
		if err != nil {
			// Vanished between event and read: treat as delete.
			report, perr := eng.ProcessChange(rel, nil, bridge.KindEdit)
			if perr == nil {
				printWarnings(report)
			}
			return
		}
		text := string(data)
		kind := bridge.KindEdit
		if event.Op.Has(fsnotify.Create) {
			kind = bridge.KindCreate
		}
		report, perr := eng.ProcessChange(rel, &text, kind)
		if perr == nil {
			printWarnings(report)
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
