package htmldoc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// chromeNames are class and id words that mark navigation or page chrome.
var chromeNames = [][]string{
	{"nav", "navbar", "navigation", "menu", "topnav", "sidenav", "breadcrumb", "breadcrumbs"},
	{"site-header", "page-header", "masthead", "banner"},
	{"footer", "site-footer", "page-footer", "colophon"},
	{"sidebar", "widget-area", "widget", "aside"},
	// Wiki export wrappers around the page body.
	{"page-metadata", "breadcrumb-section", "labels-section", "comment-container", "likes-and-labels-container"},
}

// chromeName matches a chrome word that is not part of a longer word, so
// "top-nav" matches and "navigator" does not.
var chromeName = wordPattern(chromeNames)

func wordPattern(groups [][]string) *regexp.Regexp {
	var words []string
	for _, g := range groups {
		for _, w := range g {
			words = append(words, regexp.QuoteMeta(w))
		}
	}
	return regexp.MustCompile(`(?i)(^|[^a-z])(` + strings.Join(words, "|") + `)([^a-z]|$)`)
}

// Link-list thresholds for aggressive detection.
const (
	maxLinkDensity = 0.6
	minLinks       = 4
)

// chromeRule recognizes one kind of page chrome. A rule applies from mode
// upwards.
type chromeRule struct {
	name  string
	mode  NavigationExclusionMode
	match func(d *chromeDetector, n *html.Node) bool
}

var chromeRules = []chromeRule{
	{"element", NavigationExclusionExplicit, (*chromeDetector).isChromeElement},
	{"role", NavigationExclusionExplicit, (*chromeDetector).hasChromeRole},
	{"name", NavigationExclusionStandard, (*chromeDetector).hasChromeName},
	{"links", NavigationExclusionAggressive, (*chromeDetector).isLinkList},
}

// chromeDetector finds page chrome in a parsed document.
type chromeDetector struct {
	mode NavigationExclusionMode
	body *html.Node
	// wrapper is the only structural child of body, if there is one. Its
	// children count as top level.
	wrapper *html.Node
}

func newChromeDetector(mode NavigationExclusionMode, root *html.Node) *chromeDetector {
	d := &chromeDetector{mode: mode, body: findElement(root, "body")}
	if d.body == nil {
		d.body = root
	}
	d.wrapper = singleWrapper(d.body)
	return d
}

// singleWrapper returns the only div or main child of body, or nil when
// body has other element children.
func singleWrapper(body *html.Node) *html.Node {
	var wrapper *html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "script", "style", "noscript", "template":
		case "div", "main":
			if wrapper != nil {
				return nil
			}
			wrapper = c
		default:
			return nil
		}
	}
	return wrapper
}

// find returns the outermost chrome elements below n.
func (d *chromeDetector) find(n *html.Node, out []*html.Node) []*html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if _, ok := d.match(c); ok {
			out = append(out, c)
			continue
		}
		out = d.find(c, out)
	}
	return out
}

// match returns the name of the first rule that marks n as chrome.
func (d *chromeDetector) match(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	for _, r := range chromeRules {
		if d.mode >= r.mode && r.match(d, n) {
			return r.name, true
		}
	}
	return "", false
}

// isChromeElement matches <nav> and <aside> anywhere, and <header> and
// <footer> at the top level only, since articles carry their own.
func (d *chromeDetector) isChromeElement(n *html.Node) bool {
	switch n.Data {
	case "nav", "aside":
		return true
	case "header", "footer":
		return d.topLevel(n)
	}
	return false
}

func (d *chromeDetector) hasChromeRole(n *html.Node) bool {
	switch getAttr(n, "role") {
	case "navigation", "complementary":
		return true
	case "banner", "contentinfo":
		return d.topLevel(n)
	}
	return false
}

// hasChromeName checks class and id, both as written and dash-cased so that
// pageMetadata reads as page-metadata.
func (d *chromeDetector) hasChromeName(n *html.Node) bool {
	for _, key := range []string{"class", "id"} {
		v := getAttr(n, key)
		if v != "" && (chromeName.MatchString(v) || chromeName.MatchString(dashCase(v))) {
			return true
		}
	}
	return false
}

// isLinkList matches block containers whose text is mostly links.
func (d *chromeDetector) isLinkList(n *html.Node) bool {
	switch n.Data {
	case "div", "section", "ul", "ol":
	default:
		return false
	}
	var s linkStats
	s.add(n, false)
	return s.links >= minLinks && s.text > 0 && float64(s.linkText)/float64(s.text) > maxLinkDensity
}

func (d *chromeDetector) topLevel(n *html.Node) bool {
	p := n.Parent
	return p != nil && (p == d.body || (d.wrapper != nil && p == d.wrapper))
}

// linkStats counts trimmed text length, the part of it inside links, and
// the number of links.
type linkStats struct {
	text, linkText, links int
}

func (s *linkStats) add(n *html.Node, inLink bool) {
	switch {
	case n.Type == html.TextNode:
		l := len(strings.TrimSpace(n.Data))
		s.text += l
		if inLink {
			s.linkText += l
		}
		return
	case n.Type == html.ElementNode && n.Data == "a":
		s.links++
		inLink = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.add(c, inLink)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// dashCase lowercases s and puts a dash before each inner capital.
func dashCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
