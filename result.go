package doctomd

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/trezero/docTomd/format"
	"github.com/trezero/docTomd/frontmatter"
)

// docNamespace scopes document IDs to this converter.
var docNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/trezero/docTomd"))

// DocID returns a stable identifier for a document's content. Identical bytes
// always give the same ID.
func DocID(data []byte) string {
	return uuid.NewSHA1(docNamespace, data).String()
}

// Result is the outcome of a conversion.
type Result struct {
	Markdown string
	Format   format.Format
	// Encoding names the character encoding of the text, empty for Word
	// binaries and OOXML archives.
	Encoding string
	// Degraded is set when the MIME structure had to be guessed.
	Degraded bool
	Warnings []Warning
	Title    string
	Source   string
	DocID    string
	// Stage is the last stage the pipeline completed.
	Stage Stage
}

// Metadata returns the frontmatter fields for the result.
func (r *Result) Metadata(converted time.Time) frontmatter.Metadata {
	meta := frontmatter.Metadata{
		Title:         r.Title,
		SourceFile:    filepath.Base(r.Source),
		ConvertedDate: converted,
		Format:        r.Format.String(),
		Encoding:      r.Encoding,
		DocID:         r.DocID,
		Degraded:      r.Degraded,
	}
	for _, w := range r.Warnings {
		meta.Warnings = append(meta.Warnings, w.Code+": "+w.Message)
	}
	return meta
}

// Document returns the Markdown preceded by its frontmatter block.
func (r *Result) Document(converted time.Time) (string, error) {
	return frontmatter.Render(r.Metadata(converted), r.Markdown)
}
