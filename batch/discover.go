package batch

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/trezero/docTomd/format"
	"github.com/trezero/docTomd/textenc"
)

// discover lists the input files in walk order and plans their output
// names. The output directory is never descended into.
func (r *Runner) discover() ([]job, error) {
	info, err := os.Stat(r.opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory: %s is not a directory", r.opts.InputDir)
	}
	if _, err := filepath.Match(r.opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", r.opts.Pattern, err)
	}

	outDir, _ := filepath.Abs(r.opts.OutputDir)
	taken := make(map[string]bool)

	var jobs []job
	err = filepath.WalkDir(r.opts.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == r.opts.InputDir {
				return nil
			}
			if abs, _ := filepath.Abs(path); abs == outDir || !r.opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := filepath.Match(r.opts.Pattern, d.Name()); !ok {
			return nil
		}
		if !Extensions[strings.ToLower(filepath.Ext(path))] && !sniff(path) {
			r.log.Debug().Str("source", path).Msg("skipped unsupported file")
			return nil
		}

		rel, err := filepath.Rel(r.opts.InputDir, filepath.Dir(path))
		if err != nil {
			return err
		}
		jobs = append(jobs, job{
			source: path,
			output: outputName(filepath.Join(r.opts.OutputDir, rel), stemOf(path), taken),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", r.opts.InputDir, err)
	}
	return jobs, nil
}

// sniff reports whether the start of the file classifies as HTML or MHTML.
func sniff(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	head := buf[:n]
	switch format.Classify(textenc.Resolve(head).Text, head, filepath.Ext(path)) {
	case format.MHTML, format.HTML:
		return true
	}
	return false
}
