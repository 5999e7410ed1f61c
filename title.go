package doctomd

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// resolveTitle returns the first level-one heading of markdown, else the
// first non-empty candidate, else a title made from the file name.
func resolveTitle(markdown, name string, candidates ...string) string {
	if h := firstHeading(markdown); h != "" {
		return h
	}
	for _, c := range candidates {
		if c = strings.Join(strings.Fields(c), " "); c != "" {
			return c
		}
	}
	return TitleFromName(name)
}

// firstHeading returns the text of the first "# " line outside fenced code.
func firstHeading(markdown string) string {
	fence := ""
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}
		if text, ok := strings.CutPrefix(line, "# "); ok {
			if text = strings.TrimSpace(text); text != "" {
				return text
			}
		}
	}
	return ""
}

// TitleFromName turns a file name such as "q3_sales-report.doc" into
// "Q3 Sales Report".
func TitleFromName(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	stem = strings.Join(strings.Fields(stem), " ")
	if stem == "" || stem == "." {
		return "Untitled"
	}
	return cases.Title(language.Und).String(stem)
}
