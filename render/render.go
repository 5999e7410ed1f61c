// Package render converts cleaned HTML into Markdown.
//
// Conversion is done by html-to-markdown with CommonMark rules, the GitHub
// flavored extensions (tables, strikethrough, task lists) and a few rules
// that drop links, emphasis or images on request.
package render

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/escape"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Options controls rendering.
type Options struct {
	// IgnoreLinks renders the link text without its target.
	IgnoreLinks bool

	// IgnoreEmphasis renders bold, italic and struck-through text as plain text.
	IgnoreEmphasis bool

	// IgnoreImages replaces each image by its alt text.
	IgnoreImages bool

	// BodyWidth wraps paragraphs and list items at this many display
	// columns. Zero disables wrapping.
	BodyWidth int
}

// DefaultOptions returns the options used for RAG output: images are
// reduced to their alt text and nothing is wrapped.
func DefaultOptions() Options {
	return Options{IgnoreImages: true}
}

// Renderer converts HTML to Markdown. It is safe for concurrent use.
type Renderer struct {
	conv *md.Converter
	opts Options
}

// New builds a Renderer for the given options.
func New(opts Options) *Renderer {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		Fence:            "```",
		EmDelimiter:      "*",
		StrongDelimiter:  "**",
		HorizontalRule:   "---",
	})
	conv.Use(plugin.GitHubFlavored())

	// Later rules take precedence over the CommonMark and plugin rules.
	if opts.IgnoreLinks {
		conv.AddRules(md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, _ *md.Options) *string {
				return md.String(md.AddSpaceIfNessesary(selec, content))
			},
		})
	}
	if opts.IgnoreEmphasis {
		conv.AddRules(md.Rule{
			Filter: []string{"strong", "b", "em", "i", "del", "s", "strike"},
			Replacement: plainText,
		})
	}
	if opts.IgnoreImages {
		conv.AddRules(md.Rule{
			Filter:      []string{"img"},
			Replacement: altText,
		})
	}

	return &Renderer{conv: conv, opts: opts}
}

// plainText renders inline content without its delimiters. Whitespace-only
// text nodes between inline elements are dropped by the converter, so the
// separating spaces are restored from the neighbours.
func plainText(content string, selec *goquery.Selection, _ *md.Options) *string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return md.String("")
	}
	return md.String(md.AddSpaceIfNessesary(selec, trimmed))
}

// altText renders an image as its alt text, or nothing when it has none.
func altText(_ string, selec *goquery.Selection, _ *md.Options) *string {
	alt := strings.Join(strings.Fields(selec.AttrOr("alt", "")), " ")
	if alt == "" {
		return md.String("")
	}
	return md.String(md.AddSpaceIfNessesary(selec, escape.MarkdownCharacters(alt)))
}

// Markdown converts an HTML document or fragment.
func (r *Renderer) Markdown(html string) (string, error) {
	out, err := r.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	if r.opts.BodyWidth > 0 {
		out = Wrap(out, r.opts.BodyWidth)
	}
	return out, nil
}

// Markdown converts html with a one-off Renderer.
func Markdown(html string, opts Options) (string, error) {
	return New(opts).Markdown(html)
}
