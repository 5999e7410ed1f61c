// Package htmldoc prepares HTML for Markdown rendering. It reads the title
// and meta tags of a document and strips scripts, styling, presentational
// attributes and page chrome from its body.
package htmldoc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// removedElements never carry document content.
const removedElements = "script, style, meta, link, head, noscript, template"

// blockElements are the descendants that keep a <div> from being a leaf.
const blockElements = "div, p, ul, ol, table, pre, blockquote, h1, h2, h3, h4, h5, h6"

// keptAttributes survive cleanup; every other attribute is dropped.
var keptAttributes = map[string]bool{
	"href":    true,
	"src":     true,
	"alt":     true,
	"title":   true,
	"colspan": true,
	"rowspan": true,
}

// Document is a parsed HTML document.
type Document struct {
	doc      *goquery.Document
	title    string
	metadata map[string]string
}

// Parse parses HTML. The parser is the HTML5 algorithm of x/net/html, so
// malformed markup is repaired rather than rejected.
func Parse(src string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	d := &Document{
		doc:      doc,
		metadata: make(map[string]string),
	}
	d.extractHead()
	return d, nil
}

// extractHead reads the title and meta tags.
func (d *Document) extractHead() {
	d.title = collapseSpace(d.doc.Find("title").First().Text())

	d.doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok {
			name, _ = s.Attr("property")
		}
		content, _ := s.Attr("content")
		if name != "" && content != "" {
			d.metadata[name] = content
		}
	})
}

// Title returns the text of the first <title> element.
func (d *Document) Title() string {
	return d.title
}

// Metadata returns the title and meta tags.
func (d *Document) Metadata() Metadata {
	meta := make(map[string]string, len(d.metadata))
	for k, v := range d.metadata {
		meta[k] = v
	}
	return Metadata{Title: d.title, Meta: meta}
}

// SetImageAlt calls fn with the src and alt of every <img> that has a src.
// When fn reports true, the image's alt text becomes the returned text.
// It returns the number of images changed.
func (d *Document) SetImageAlt(fn func(src, alt string) (string, bool)) int {
	changed := 0
	d.doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		if text, ok := fn(src, alt); ok {
			s.SetAttr("alt", text)
			changed++
		}
	})
	return changed
}

// Clean strips the document down to its content and returns the inner HTML
// of <body>. It modifies the parsed tree, so it should be called once.
func (d *Document) Clean(opts Options) (string, error) {
	root := d.doc.Nodes[0]

	for _, n := range newChromeDetector(opts.Navigation, root).find(root, nil) {
		n.Parent.RemoveChild(n)
	}

	d.doc.Find(removedElements).Remove()
	removeComments(root)
	filterAttributes(root)

	// Leaf divs become paragraphs before empty paragraphs are dropped, so an
	// empty leaf div disappears too.
	d.doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockElements).Length() == 0 {
			n := s.Get(0)
			n.Data = "p"
			n.DataAtom = atom.P
		}
	})
	d.doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 {
			s.Remove()
		}
	})

	body := d.doc.Find("body")
	if body.Length() == 0 {
		body = d.doc.Selection
	}
	out, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Clean parses src and returns its cleaned body together with the head
// metadata.
func Clean(src string, opts Options) (string, Metadata, error) {
	d, err := Parse(src)
	if err != nil {
		return "", Metadata{}, err
	}
	meta := d.Metadata()
	out, err := d.Clean(opts)
	if err != nil {
		return "", meta, err
	}
	return out, meta, nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

func filterAttributes(n *html.Node) {
	if n.Type == html.ElementNode && len(n.Attr) > 0 {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if a.Namespace == "" && (keptAttributes[a.Key] || isCodeLanguage(n, a)) {
				kept = append(kept, a)
			}
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		filterAttributes(c)
	}
}

// isCodeLanguage reports whether a is the language class of a code element,
// which the renderer turns into the info string of a fenced block.
func isCodeLanguage(n *html.Node, a html.Attribute) bool {
	return n.Data == "code" && a.Key == "class" && strings.HasPrefix(a.Val, "language-")
}

// findElement returns the first element with the given tag name.
func findElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tagName); found != nil {
			return found
		}
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
