package doctomd

import (
	"fmt"

	"github.com/trezero/docTomd/htmldoc"
	"github.com/trezero/docTomd/textenc"
)

// Options holds conversion settings.
type Options struct {
	// IgnoreImages replaces images by their alt text.
	IgnoreImages bool
	// IgnoreLinks keeps link text and drops targets.
	IgnoreLinks bool
	// IgnoreEmphasis drops bold, italic and strikethrough markup.
	IgnoreEmphasis bool
	// BodyWidth wraps paragraphs at this many columns; 0 disables wrapping.
	BodyWidth int

	// Encodings is the ordered decoding chain.
	Encodings []string
	// StrictDecoding disables the lossy UTF-8 fallback after the chain.
	StrictDecoding bool

	// Navigation selects how aggressively page chrome is removed from HTML.
	Navigation htmldoc.NavigationExclusionMode

	// OCRImages runs image parts of MHTML exports through OCR and uses the
	// recognized text as alt text.
	OCRImages   bool
	OCRLanguage string
}

// DefaultOptions returns the options used for RAG ingestion.
func DefaultOptions() Options {
	return Options{
		IgnoreImages: true,
		Encodings:    append([]string(nil), textenc.DefaultChain...),
		Navigation:   htmldoc.NavigationExclusionStandard,
		OCRLanguage:  "eng",
	}
}

func (o Options) clone() Options {
	o.Encodings = append([]string(nil), o.Encodings...)
	return o
}

func (o Options) resolver() (*textenc.Resolver, error) {
	if o.BodyWidth < 0 {
		return nil, fmt.Errorf("body width %d is negative", o.BodyWidth)
	}
	names := o.Encodings
	if len(names) == 0 {
		names = textenc.DefaultChain
	}
	var opts []textenc.Option
	if o.StrictDecoding {
		opts = append(opts, textenc.WithoutLossyFallback())
	}
	return textenc.NewResolver(names, opts...)
}
