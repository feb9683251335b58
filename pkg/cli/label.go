package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bstardust/piclabel/internal/batch"
	"github.com/bstardust/piclabel/internal/config"
	"github.com/bstardust/piclabel/internal/fshelper"
	"github.com/bstardust/piclabel/internal/journal"
	"github.com/bstardust/piclabel/internal/render"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/bstardust/piclabel/pkg/s3client"
	"github.com/spf13/cobra"
)

// labelBindings maps config keys to the flags shared by label and watch
var labelBindings = map[string]string{
	"label.font":         "font",
	"label.font_file":    "font-file",
	"label.output_dir":   "output-dir",
	"label.jpeg_quality": "quality",
	"share.enabled":      "share",
	"batch.concurrency":  "concurrency",
	"batch.resume":       "resume",
	"batch.journal_path": "journal",
}

func addLabelFlags(cmd *cobra.Command) {
	d := config.New()
	cmd.Flags().String("font", d.Label.Font, "Built-in font ("+strings.Join(render.FontNames(), ", ")+")")
	cmd.Flags().String("font-file", "", "TrueType/OpenType font file, overrides --font")
	cmd.Flags().StringP("output-dir", "o", d.Label.OutputDir, "Directory labeled images are saved to")
	cmd.Flags().Int("quality", d.Label.JPEGQuality, "JPEG quality (1-100)")
	cmd.Flags().Bool("share", false, "Upload labeled images to the configured bucket and print a link")
	cmd.Flags().IntP("concurrency", "c", d.Batch.Concurrency, "Number of images processed at once")
	cmd.Flags().Bool("resume", d.Batch.Resume, "Skip images recorded in the journal")
	cmd.Flags().String("journal", "", "Path to the journal file (default ~/"+journal.DefaultFile+")")
}

func newLabelCommand(load configLoader) *cobra.Command {
	var dateTime, place string

	cmd := &cobra.Command{
		Use:   "label [flags] <image|dir|zip|glob>...",
		Short: "Draw the date and location on images and save labeled copies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, labelBindings)
			if err != nil {
				return err
			}

			var overrides batch.Overrides
			if cmd.Flags().Changed("datetime") {
				overrides.DateTime = &dateTime
			}
			if cmd.Flags().Changed("location") {
				overrides.Location = &place
			}

			sources, err := fshelper.Collect(args)
			if err != nil {
				return err
			}
			defer fshelper.CloseAll(sources)

			total := 0
			for _, src := range sources {
				total += len(src.Paths)
			}
			if total > 1 && (overrides.DateTime != nil || overrides.Location != nil) {
				return common.NewConfigError("--datetime and --location apply to a single image")
			}

			extractor, err := newExtractor(cfg)
			if err != nil {
				return err
			}
			lbl, err := newLabeler(cfg)
			if err != nil {
				return err
			}

			printer := &outcomePrinter{w: cmd.OutOrStdout()}
			opts := []batch.Option{
				batch.WithConcurrency(cfg.Batch.Concurrency),
				batch.WithOverrides(overrides),
				batch.OnOutcome(printer.print),
			}
			if total > 1 || cfg.Batch.JournalPath != "" {
				opts = append(opts, batch.WithJournal(loadJournal(cfg), cfg.Batch.Resume))
			}
			if cfg.Share.Enabled {
				sharer, err := newSharer(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				opts = append(opts, batch.WithSharer(sharer))
			}

			summary, err := batch.New(extractor, lbl, opts...).Run(cmd.Context(), sources)
			if err != nil {
				return err
			}
			if summary.Errors > 0 {
				return fmt.Errorf("%d of %d images could not be processed", summary.Errors, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateTime, "datetime", "", "Replace the date/time caption (single image only)")
	cmd.Flags().StringVar(&place, "location", "", "Replace the location caption (single image only)")
	addLabelFlags(cmd)
	return cmd
}

// outcomePrinter writes one line per processed image
type outcomePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *outcomePrinter) print(out batch.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case out.Skipped:
		fmt.Fprintf(p.w, "Skipped %s: already labeled\n", out.Source)
		return
	case out.Result != nil:
		fmt.Fprintf(p.w, "Image saved: %s\n", out.Result.OutputPath)
	}
	if out.Shared != nil {
		fmt.Fprintf(p.w, "Shared: %s\n", out.Shared.URL)
	}
	if out.Err != nil {
		fmt.Fprintf(p.w, "Could not process image: %s\n", reason(out.Source, out.Err))
	}
}

// reason turns processing errors into the user-facing explanation
func reason(source string, err error) string {
	var decodeErr *common.DecodeError
	var processErr *common.ProcessError
	var shareErr *common.ShareError

	switch {
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("%s is not a supported image (%v)", source, decodeErr.Err)
	case errors.As(err, &processErr):
		if processErr.Err != nil {
			return fmt.Sprintf("%s: %s: %v", source, processErr.Message, processErr.Err)
		}
		return fmt.Sprintf("%s: %s", source, processErr.Message)
	case errors.As(err, &shareErr):
		return fmt.Sprintf("%s was saved but not shared: %s", source, s3client.Describe(shareErr.Err))
	default:
		return fmt.Sprintf("%s: %v", source, err)
	}
}
