package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bstardust/piclabel/internal/batch"
	"github.com/bstardust/piclabel/internal/fshelper"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/internal/watcher"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/spf13/cobra"
)

func newWatchCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <dir>",
		Short: "Label photos as they arrive in a directory, until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings := map[string]string{"batch.settle_delay": "settle"}
			for k, v := range labelBindings {
				bindings[k] = v
			}
			cfg, err := load(cmd, bindings)
			if err != nil {
				return err
			}
			if within(cfg.Label.OutputDir, args[0]) {
				return common.NewConfigError(fmt.Sprintf(
					"output directory %s must not be inside the watched directory %s", cfg.Label.OutputDir, args[0]))
			}

			extractor, err := newExtractor(cfg)
			if err != nil {
				return err
			}
			lbl, err := newLabeler(cfg)
			if err != nil {
				return err
			}

			jnl := loadJournal(cfg)
			jnl.StartPeriodicSave(cmd.Context(), time.Minute)
			defer jnl.StopPeriodicSave()

			printer := &outcomePrinter{w: cmd.OutOrStdout()}
			opts := []batch.Option{
				batch.WithConcurrency(cfg.Batch.Concurrency),
				batch.WithJournal(jnl, cfg.Batch.Resume),
				batch.OnOutcome(printer.print),
			}
			if cfg.Share.Enabled {
				sharer, err := newSharer(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				opts = append(opts, batch.WithSharer(sharer))
			}
			processor := batch.New(extractor, lbl, opts...)

			w, err := watcher.New(args[0], cfg.Batch.SettleDelay)
			if err != nil {
				return err
			}
			src := &fshelper.Source{FS: fshelper.NewDirFS(args[0])}

			logger.Info("Watching %s for new photos (Ctrl+C to stop)", src.FS.Name())
			processor.Start()
			err = w.Run(cmd.Context(), func(ctx context.Context, name string) {
				if err := processor.Submit(ctx, src.FS, name, src.Key(name)); err != nil {
					logger.Debug("Not labeling %s: %v", name, err)
				}
			})
			summary := processor.Finish()
			fmt.Fprintf(cmd.OutOrStdout(), "Labeled %d photos (%d errors)\n", summary.Completed, summary.Errors)
			return err
		},
	}

	addLabelFlags(cmd)
	cmd.Flags().Duration("settle", 2*time.Second, "Wait this long after the last write before labeling a photo")
	return cmd
}

// within reports whether path is dir or lies below it. Saved photos land
// there and would be picked up as new arrivals.
func within(path, dir string) bool {
	rel, err := filepath.Rel(resolve(dir), resolve(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolve returns the absolute, symlink-free form of p. Missing trailing
// elements, such as an output directory not created yet, are kept as is.
func resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	var missing []string
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		missing = append([]string{filepath.Base(dir)}, missing...)
		dir = parent
	}
}
