// Package doctomd converts document exports into Markdown for retrieval
// pipelines. The format is detected from the content, not the extension, so
// a Confluence page saved as ".doc" (really MIME-encapsulated HTML) is
// handled the same as a real Word file or a plain HTML page.
//
// Basic usage:
//
//	res, err := doctomd.Open("export.doc").Convert()
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(res.Markdown)
//	if len(res.Warnings) > 0 {
//	    log.Println("Warnings:", doctomd.FormatWarnings(res.Warnings))
//	}
//
// With options:
//
//	md, _, err := doctomd.Open("page.html").
//	    IgnoreLinks().
//	    BodyWidth(80).
//	    Markdown()
package doctomd

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// RawDocument is the input of a conversion. Ext is advisory only.
type RawDocument struct {
	Data []byte
	Name string
	Ext  string
}

// Open returns a Converter for the file at path. The file is read when a
// terminal operation such as Convert runs.
//
// Example:
//
//	res, err := doctomd.Open("export.doc").Convert()
func Open(path string) *Converter {
	return &Converter{
		path:    path,
		doc:     RawDocument{Name: path, Ext: strings.ToLower(filepath.Ext(path))},
		options: DefaultOptions(),
		log:     zerolog.Nop(),
	}
}

// FromBytes returns a Converter for data already in memory. name is used for
// the extension hint, the fallback title and error messages.
//
// Example:
//
//	res, err := doctomd.FromBytes("page.html", body).Convert()
func FromBytes(name string, data []byte) *Converter {
	return &Converter{
		doc:     RawDocument{Data: data, Name: name, Ext: strings.ToLower(filepath.Ext(name))},
		loaded:  true,
		options: DefaultOptions(),
		log:     zerolog.Nop(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	res := doctomd.Must(doctomd.Open("export.doc").Convert())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustMarkdown is like Must for Markdown, discarding the warnings.
//
// Example:
//
//	md := doctomd.MustMarkdown(doctomd.Open("export.doc").Markdown())
func MustMarkdown(md string, _ []Warning, err error) string {
	if err != nil {
		panic(err)
	}
	return md
}
