// Command doctomd converts document exports (Confluence .doc/.mht, HTML,
// DOCX, legacy Word, RTF, text) into Markdown.
//
// Usage:
//
//	doctomd [flags] <input>
//	doctomd -d <dir> [-od <outdir>] [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/trezero/docTomd"
	"github.com/trezero/docTomd/batch"
	"github.com/trezero/docTomd/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("doctomd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  doctomd [flags] <input>\n  doctomd -d <dir> [-od <outdir>] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	var (
		outputPath string
		inputDir   string
		outputDir  string
		configPath string
		noMetadata bool
		verbose    bool
		set        = config.Default()
	)
	fs.StringVar(&outputPath, "o", "", "Output Markdown file (default: input name with .md; - for stdout)")
	fs.StringVar(&inputDir, "d", "", "Convert every matching file of this directory")
	fs.StringVar(&outputDir, "od", "", "Output directory for -d (default: <dir>/"+batch.DefaultOutputDir+")")
	fs.StringVar(&set.Pattern, "pattern", set.Pattern, "File name pattern for -d, e.g. '*.doc'")
	fs.BoolVar(&set.Recursive, "r", false, "Descend into subdirectories with -d")
	fs.BoolVar(&noMetadata, "no-metadata", false, "Do not write a YAML frontmatter block")
	fs.BoolVar(&set.IgnoreLinks, "ignore-links", false, "Render links as plain text")
	fs.BoolVar(&set.IgnoreImages, "ignore-images", set.IgnoreImages, "Drop images from the output")
	fs.BoolVar(&set.IgnoreEmphasis, "ignore-emphasis", false, "Render bold and italic as plain text")
	fs.IntVar(&set.BodyWidth, "body-width", 0, "Wrap paragraphs at this many columns (0 disables wrapping)")
	fs.IntVar(&set.Workers, "workers", set.Workers, "Concurrent conversions for -d")
	fs.StringVar(&configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "Path to a YAML or JSON config file")
	fs.BoolVar(&set.OCR, "ocr", false, "Recover text from embedded images with Tesseract")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pattern":
			cfg.Pattern = set.Pattern
		case "r":
			cfg.Recursive = set.Recursive
		case "ignore-links":
			cfg.IgnoreLinks = set.IgnoreLinks
		case "ignore-images":
			cfg.IgnoreImages = set.IgnoreImages
		case "ignore-emphasis":
			cfg.IgnoreEmphasis = set.IgnoreEmphasis
		case "body-width":
			cfg.BodyWidth = set.BodyWidth
		case "workers":
			cfg.Workers = set.Workers
		case "ocr":
			cfg.OCR = set.OCR
		case "no-metadata":
			cfg.Metadata = !noMetadata
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid flags")
		return 2
	}

	switch {
	case inputDir != "" && fs.NArg() == 0:
		return runBatch(ctx, cfg, inputDir, outputDir, log)
	case inputDir == "" && fs.NArg() == 1:
		return runSingle(cfg, fs.Arg(0), outputPath, stdout, log)
	default:
		fs.Usage()
		return 2
	}
}

func runSingle(cfg config.Config, input, output string, stdout io.Writer, log zerolog.Logger) int {
	res, err := doctomd.Open(input).
		WithOptions(cfg.Options()).
		WithLogger(log).
		Convert()
	for _, w := range res.Warnings {
		log.Warn().Str("code", w.Code).Str("stage", w.Stage.String()).Msg(w.Message)
	}
	if err != nil {
		log.Error().Err(err).Msg("conversion failed")
		return 1
	}

	content := res.Markdown + "\n"
	if cfg.Metadata {
		if content, err = res.Document(time.Now().UTC()); err != nil {
			log.Error().Err(err).Msg("writing metadata failed")
			return 1
		}
	}

	if output == "-" {
		if _, err := io.WriteString(stdout, content); err != nil {
			log.Error().Err(err).Msg("write failed")
			return 1
		}
		return 0
	}
	if output == "" {
		output = defaultOutput(input)
	}
	if samePath(output, input) {
		log.Error().Str("output", output).Msg("output would overwrite the input")
		return 1
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		log.Error().Err(err).Msg("write failed")
		return 1
	}
	log.Info().
		Str("format", res.Format.String()).
		Str("title", res.Title).
		Str("output", output).
		Msg("converted")
	return 0
}

// defaultOutput is the input path with a .md extension, or with
// .converted.md when the input already is Markdown.
func defaultOutput(input string) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	if out := stem + ".md"; !samePath(out, input) {
		return out
	}
	return stem + ".converted.md"
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if absA == absB {
		return true
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func runBatch(ctx context.Context, cfg config.Config, inputDir, outputDir string, log zerolog.Logger) int {
	r := batch.New(batch.Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Pattern:   cfg.Pattern,
		Recursive: cfg.Recursive,
		Workers:   cfg.Workers,
		Metadata:  cfg.Metadata,
		Convert:   cfg.Options(),
	}, log)

	sum, err := r.Run(ctx)
	if sum == nil {
		log.Error().Err(err).Msg("batch conversion failed")
		return 1
	}
	if err != nil {
		log.Warn().Err(err).Int("skipped", sum.Skipped).Msg("batch conversion interrupted")
	}
	if sum.AllFailed() {
		log.Error().Int("failed", sum.Failed).Msg("no document could be converted")
		return 1
	}
	return 0
}
