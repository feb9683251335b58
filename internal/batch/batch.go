// Package batch labels many images on a bounded worker pool.
package batch

import (
	"context"
	"io/fs"

	"github.com/bstardust/piclabel/internal/fshelper"
	"github.com/bstardust/piclabel/internal/imageinfo"
	"github.com/bstardust/piclabel/internal/journal"
	"github.com/bstardust/piclabel/internal/labeler"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/internal/progress"
	"github.com/bstardust/piclabel/internal/render"
	"github.com/bstardust/piclabel/internal/share"
	"github.com/bstardust/piclabel/internal/worker"
)

// Extractor resolves the caption data of an image
type Extractor interface {
	ExtractFile(ctx context.Context, fsys fs.FS, path string) (*imageinfo.Info, error)
}

// Labeler renders and saves a labeled image
type Labeler interface {
	Process(ctx context.Context, req labeler.Request) (*labeler.Result, error)
}

// Sharer publishes a labeled image
type Sharer interface {
	Share(ctx context.Context, res *labeler.Result, caption render.Caption) (*share.Shared, error)
}

// Overrides replace the extracted caption fields when set
type Overrides struct {
	DateTime *string
	Location *string
}

func (o Overrides) apply(c render.Caption) render.Caption {
	if o.DateTime != nil {
		c.DateTime = *o.DateTime
	}
	if o.Location != nil {
		c.Location = *o.Location
	}
	return c
}

// Outcome is the result of processing one source image
type Outcome struct {
	Source  string
	Key     string
	Skipped bool
	Info    *imageinfo.Info
	Result  *labeler.Result
	Shared  *share.Shared
	Err     error
}

// Processor labels images, optionally sharing them and journaling progress
type Processor struct {
	extractor Extractor
	labeler   Labeler
	sharer    Sharer
	journal   *journal.Journal
	resume    bool
	pool      *worker.Pool
	progress  *progress.Reporter
	overrides Overrides
	onOutcome func(Outcome)
}

// Option configures a Processor
type Option func(*Processor)

// WithSharer publishes every labeled image through s
func WithSharer(s Sharer) Option {
	return func(p *Processor) { p.sharer = s }
}

// WithJournal records labeled sources in j; with resume, journaled
// sources are skipped.
func WithJournal(j *journal.Journal, resume bool) Option {
	return func(p *Processor) {
		p.journal = j
		p.resume = resume
	}
}

// WithConcurrency sets the number of images processed at once
func WithConcurrency(n int) Option {
	return func(p *Processor) { p.pool = worker.NewPool(n) }
}

// WithProgress replaces the progress reporter
func WithProgress(r *progress.Reporter) Option {
	return func(p *Processor) { p.progress = r }
}

// WithOverrides sets caption overrides
func WithOverrides(o Overrides) Option {
	return func(p *Processor) { p.overrides = o }
}

// OnOutcome registers a callback invoked once per processed image. It may
// be called concurrently.
func OnOutcome(fn func(Outcome)) Option {
	return func(p *Processor) { p.onOutcome = fn }
}

// New creates a new Processor
func New(extractor Extractor, lbl Labeler, opts ...Option) *Processor {
	p := &Processor{
		extractor: extractor,
		labeler:   lbl,
		pool:      worker.NewPool(4),
		progress:  progress.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every image of sources and returns the final tally. Per
// image failures are reported and counted; only cancellation stops the run.
func (p *Processor) Run(ctx context.Context, sources []*fshelper.Source) (progress.Summary, error) {
	total := 0
	for _, src := range sources {
		total += len(src.Paths)
	}
	p.progress.Start(total)

	var err error
submit:
	for _, src := range sources {
		for _, path := range src.Paths {
			if err = p.Submit(ctx, src.FS, path, src.Key(path)); err != nil {
				break submit
			}
		}
	}

	p.pool.Wait()
	p.flushJournal()
	return p.progress.Finish(), err
}

// Start begins an open-ended run for Submit callers such as the watcher
func (p *Processor) Start() {
	p.progress.Start(0)
}

// Finish waits for submitted work and returns the tally
func (p *Processor) Finish() progress.Summary {
	p.pool.Wait()
	p.flushJournal()
	return p.progress.Finish()
}

// Journal returns the configured journal, or nil
func (p *Processor) Journal() *journal.Journal {
	return p.journal
}

// Submit queues one image on the worker pool. It blocks while the pool is
// full and returns ctx.Err() if ctx is done first.
func (p *Processor) Submit(ctx context.Context, fsys fs.FS, path, key string) error {
	if p.resume && p.journal != nil && p.journal.IsLabeled(key) {
		p.report(Outcome{Source: path, Key: key, Skipped: true})
		return nil
	}

	return p.pool.Submit(ctx, func() {
		p.report(p.ProcessOne(ctx, fsys, path, key))
	})
}

// ProcessOne extracts, labels and optionally shares a single image
func (p *Processor) ProcessOne(ctx context.Context, fsys fs.FS, path, key string) Outcome {
	out := Outcome{Source: path, Key: key}

	info, err := p.extractor.ExtractFile(ctx, fsys, path)
	if err != nil {
		out.Err = err
		return out
	}
	out.Info = info
	for _, w := range info.Warnings() {
		logger.Warn("%s: %s", path, w)
	}

	caption := p.overrides.apply(render.Caption{DateTime: info.DateTime, Location: info.Location})

	res, err := p.labeler.Process(ctx, labeler.Request{
		FS:          fsys,
		Path:        path,
		Orientation: info.Orientation,
		Caption:     caption,
	})
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res

	var url string
	if p.sharer != nil {
		shared, err := p.sharer.Share(ctx, res, caption)
		if err != nil {
			// the labeled file exists; journal it so resume does not duplicate it
			out.Err = err
		} else {
			out.Shared = shared
			url = shared.URL
		}
	}

	if p.journal != nil {
		p.journal.MarkLabeled(key, res.OutputPath, url)
	}
	return out
}

func (p *Processor) report(out Outcome) {
	switch {
	case out.Skipped:
		p.progress.Skip(out.Source)
	case out.Err != nil:
		logger.Error("Could not process image %s: %v", out.Source, out.Err)
		p.progress.Error(out.Source, out.Err)
	default:
		logger.Info("Image saved: %s", out.Result.OutputPath)
		p.progress.Complete(out.Source)
	}

	if p.onOutcome != nil {
		p.onOutcome(out)
	}
}

func (p *Processor) flushJournal() {
	if p.journal == nil {
		return
	}
	if err := p.journal.Flush(); err != nil {
		logger.Error("Failed to save journal %s: %v", p.journal.Path(), err)
	}
}
