package mhtml

import (
	"regexp"
	"strings"
)

var boilerplate = []*regexp.Regexp{
	// stylesheets
	regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`),
	// Word/MSO conditional comments
	regexp.MustCompile(`(?is)<!--\[if [^\]]*\]>.*?<!\[endif\]-->`),
	regexp.MustCompile(`(?is)<!\[if [^\]]*\]>|<!\[endif\]>`),
	// XML data islands
	regexp.MustCompile(`(?is)<xml\b[^>]*>.*?</xml\s*>`),
	// Office namespace tags, keeping their content
	regexp.MustCompile(`(?i)</?[ovwm]:[a-z]+\b[^>]*>`),
}

// Text-only lines naming the export tool.
var bannerLine = regexp.MustCompile(`(?im)^[ \t]*(?:exported from confluence|generated by confluence|created with confluence)[^<\n]*\r?\n?`)

// StripBoilerplate removes style blocks, MSO conditional comments, XML
// islands and export banner lines from an exported HTML body.
func StripBoilerplate(html string) string {
	for _, re := range boilerplate {
		html = re.ReplaceAllString(html, "")
	}
	html = bannerLine.ReplaceAllString(html, "")
	return strings.TrimSpace(html)
}
