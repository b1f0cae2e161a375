package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/OrcaBus/service-bclconvert-manager/internal/artifact"
	"github.com/OrcaBus/service-bclconvert-manager/internal/template"
)

// newWatchCmd creates the "watch" subcommand, which rebuilds when the
// artifact manifest or a workflow definition changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		debounce     time.Duration
		outputFormat string
		outputDir    string
	)

	cmd := &cobra.Command{
		Use:   "watch <artifact-dir>",
		Short: "Rebuild on artifact changes",
		Long: `Watch monitors an artifact directory and rebuilds both stacks whenever the
manifest or a state machine definition it references changes. Rapid changes are debounced.

Examples:
    bclconvert-manager watch ./app
    bclconvert-manager watch ./app -o cdk.out -f yaml
    bclconvert-manager watch ./app --debounce 1s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.artifacts = args[0]
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, opts, watchOptions{
				debounce:     debounce,
				outputFormat: outputFormat,
				outputDir:    outputDir,
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write templates to (default: report only)")

	return cmd
}

type watchOptions struct {
	debounce     time.Duration
	outputFormat string
	outputDir    string
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *globalOptions, wo watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := addDirRecursive(watcher, opts.artifacts); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.artifacts, err)
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Watching: %s\n", opts.artifacts)
	fmt.Fprintln(out, "Running initial build...")
	rebuild(ctx, cmd, opts, wo)
	tracked := trackedPaths(opts.artifacts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(out, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isTracked(opts.artifacts, tracked, event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(wo.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(out, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			rebuild(ctx, cmd, opts, wo)
			tracked = trackedPaths(opts.artifacts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "Watch error: %v\n", err)

		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopping watch...")
			return nil
		}
	}
}

// trackedPaths lists the files a rebuild reads, relative to dir. The
// manifest is tracked even when it cannot be parsed, so fixing it
// triggers a rebuild.
func trackedPaths(dir string) map[string]bool {
	tracked := map[string]bool{artifact.ManifestFile: true}
	store, err := artifact.Open(os.DirFS(dir))
	if err != nil {
		return tracked
	}
	for _, p := range store.Paths() {
		tracked[p] = true
	}
	return tracked
}

// isTracked reports whether a changed file is one the build reads.
func isTracked(dir string, tracked map[string]bool, name string) bool {
	rel, err := filepath.Rel(dir, name)
	if err != nil {
		return false
	}
	return tracked[filepath.ToSlash(rel)]
}

// addDirRecursive adds a directory and all subdirectories to the watcher.
func addDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// rebuild compiles and synthesizes both stacks, reporting to stderr. Errors
// are reported and never stop the watch.
func rebuild(ctx context.Context, cmd *cobra.Command, opts *globalOptions, wo watchOptions) {
	out := cmd.ErrOrStderr()
	cfg, g, err := opts.compile(ctx)
	if err != nil {
		fmt.Fprintf(out, "Build error: %v\n", err)
		return
	}

	for _, st := range template.Stacks {
		tmpl, err := template.Synthesize(g, cfg, st)
		if err != nil {
			fmt.Fprintf(out, "Build error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Build successful: %s (%d resources)\n", st.Name(), len(tmpl.Resources))
		if wo.outputDir == "" {
			continue
		}
		data, err := render(tmpl, wo.outputFormat)
		if err != nil {
			fmt.Fprintf(out, "Output error: %v\n", err)
			return
		}
		if err := os.MkdirAll(wo.outputDir, 0755); err != nil {
			fmt.Fprintf(out, "Output error: %v\n", err)
			return
		}
		path := filepath.Join(wo.outputDir, st.Name()+"."+wo.outputFormat)
		if err := os.WriteFile(path, data, 0644); err != nil {
			fmt.Fprintf(out, "Failed to write output: %v\n", err)
			return
		}
		fmt.Fprintf(out, "  wrote %s\n", path)
	}
}
