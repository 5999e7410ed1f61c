// Package batch converts every matching document of a directory tree.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/trezero/docTomd"
	"github.com/trezero/docTomd/format"
)

// DefaultOutputDir is the output directory name used under the input
// directory when none is given.
const DefaultOutputDir = "markdown_output"

// sniffSize is how much of a file with an unknown extension is read to
// decide whether it holds HTML or MHTML.
const sniffSize = 8 << 10

// Extensions converted without looking at the content.
var Extensions = map[string]bool{
	".doc":   true,
	".docx":  true,
	".htm":   true,
	".html":  true,
	".mht":   true,
	".mhtml": true,
	".rtf":   true,
	".txt":   true,
	".md":    true,
}

// Options controls a batch run.
type Options struct {
	InputDir string
	// OutputDir defaults to InputDir/markdown_output.
	OutputDir string
	// Pattern is a filepath.Match pattern applied to file names.
	Pattern   string
	Recursive bool
	// Workers bounds the number of concurrent conversions.
	Workers int
	// Metadata writes a frontmatter block above each document.
	Metadata bool
	Convert  doctomd.Options
	// Now stamps converted_date; it defaults to time.Now.
	Now func() time.Time
}

// Status is the outcome of one file.
type Status int

const (
	Converted Status = iota
	Failed
	Duplicate
	Skipped
)

func (s Status) String() string {
	switch s {
	case Converted:
		return "converted"
	case Failed:
		return "failed"
	case Duplicate:
		return "duplicate"
	case Skipped:
		return "skipped"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Outcome describes what happened to one input file.
type Outcome struct {
	Source   string
	Output   string
	Status   Status
	Format   format.Format
	Warnings []doctomd.Warning
	Err      error
	// DuplicateOf is the source whose content this file repeats.
	DuplicateOf string
}

// Summary is the result of a run, with outcomes in discovery order.
type Summary struct {
	Outcomes   []Outcome
	Converted  int
	Failed     int
	Duplicates int
	Skipped    int
}

// AllFailed reports whether some files failed and none converted.
func (s *Summary) AllFailed() bool {
	return s.Failed > 0 && s.Converted == 0
}

// job is one planned conversion.
type job struct {
	source string
	output string
}

// Runner converts a directory. A Runner is used for a single Run.
type Runner struct {
	opts Options
	log  zerolog.Logger
	seen *cache.Cache
}

// New creates a Runner.
func New(opts Options, log zerolog.Logger) *Runner {
	if opts.Pattern == "" {
		opts.Pattern = "*"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(opts.InputDir, DefaultOutputDir)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		opts: opts,
		log:  log,
		seen: cache.New(cache.NoExpiration, 0),
	}
}

// Run discovers and converts the input files. Cancelling ctx stops new
// conversions from starting; files already being converted finish and the
// rest are reported as Skipped. Per-file failures are recorded in the
// Summary; the error is only set for discovery failures and cancellation.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	jobs, err := r.discover()
	if err != nil {
		return nil, err
	}
	r.log.Info().
		Str("input", r.opts.InputDir).
		Str("output", r.opts.OutputDir).
		Int("files", len(jobs)).
		Msg("starting batch conversion")

	outcomes := make([]Outcome, len(jobs))
	for i, j := range jobs {
		outcomes[i] = Outcome{Source: j.source, Status: Skipped}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		i, j := i, j
		g.Go(func() error {
			outcomes[i] = r.convert(j)
			return nil
		})
	}
	_ = g.Wait()

	sum := &Summary{Outcomes: outcomes}
	for i := range outcomes {
		switch outcomes[i].Status {
		case Converted:
			sum.Converted++
		case Failed:
			sum.Failed++
		case Duplicate:
			sum.Duplicates++
		case Skipped:
			outcomes[i].Err = ctx.Err()
			sum.Skipped++
		}
	}
	r.log.Info().
		Int("converted", sum.Converted).
		Int("failed", sum.Failed).
		Int("duplicates", sum.Duplicates).
		Int("skipped", sum.Skipped).
		Msg("batch conversion finished")

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// convert handles one file. Content already converted in this run is not
// converted again.
func (r *Runner) convert(j job) Outcome {
	out := Outcome{Source: j.source}
	log := r.log.With().Str("source", j.source).Logger()

	data, err := os.ReadFile(j.source)
	if err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("reading %s: %w", j.source, err)
		log.Error().Err(err).Msg("read failed")
		return out
	}

	id := doctomd.DocID(data)
	if err := r.seen.Add(id, j.source, cache.NoExpiration); err != nil {
		first, _ := r.seen.Get(id)
		out.Status = Duplicate
		out.DuplicateOf, _ = first.(string)
		log.Info().Str("duplicate_of", out.DuplicateOf).Msg("skipped duplicate content")
		return out
	}

	res, err := doctomd.FromBytes(j.source, data).
		WithOptions(r.opts.Convert).
		WithLogger(log).
		Convert()
	out.Format = res.Format
	out.Warnings = res.Warnings
	if err != nil {
		out.Status, out.Err = Failed, err
		log.Error().Err(err).Msg("conversion failed")
		return out
	}

	content := res.Markdown + "\n"
	if r.opts.Metadata {
		if content, err = res.Document(r.opts.Now().UTC()); err != nil {
			out.Status, out.Err = Failed, err
			return out
		}
	}
	if err := os.MkdirAll(filepath.Dir(j.output), 0o755); err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("creating output directory: %w", err)
		return out
	}
	if err := os.WriteFile(j.output, []byte(content), 0o644); err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("writing %s: %w", j.output, err)
		return out
	}

	out.Status, out.Output = Converted, j.output
	ev := log.Info()
	if len(res.Warnings) > 0 {
		ev = log.Warn().Str("warnings", doctomd.FormatWarnings(res.Warnings))
	}
	ev.Str("format", res.Format.String()).Str("output", j.output).Msg("converted")
	return out
}

// outputName returns stem.md, or stem_N.md when that name is taken.
func outputName(dir, stem string, taken map[string]bool) string {
	name := filepath.Join(dir, stem+".md")
	for n := 1; taken[name]; n++ {
		name = filepath.Join(dir, stem+"_"+strconv.Itoa(n)+".md")
	}
	taken[name] = true
	return name
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
