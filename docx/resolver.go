package docx

import (
	"strconv"
	"strings"
)

// ResolvedStyle is what the converter needs to know about a paragraph style.
type ResolvedStyle struct {
	ID   string
	Name string

	IsHeading    bool
	HeadingLevel int // 1-9, 0 if not a heading

	// List styles ("List Bullet", "List Number 2") without numbering
	// properties of their own.
	IsList      bool
	ListOrdered bool
	ListLevel   int
}

// StyleResolver resolves paragraph styles, following basedOn inheritance.
type StyleResolver struct {
	styles   map[string]*styleDefXML
	resolved map[string]*ResolvedStyle
}

// NewStyleResolver creates a new style resolver from parsed styles.
func NewStyleResolver(styles *stylesXML) *StyleResolver {
	sr := &StyleResolver{
		styles:   make(map[string]*styleDefXML),
		resolved: make(map[string]*ResolvedStyle),
	}
	if styles == nil {
		return sr
	}
	for i := range styles.Styles {
		style := &styles.Styles[i]
		sr.styles[style.StyleID] = style
	}
	return sr
}

// Resolve returns the resolved style for the given style ID.
func (sr *StyleResolver) Resolve(styleID string) *ResolvedStyle {
	if styleID == "" {
		return &ResolvedStyle{}
	}
	if resolved, ok := sr.resolved[styleID]; ok {
		return resolved
	}

	resolved := &ResolvedStyle{ID: styleID}
	def, ok := sr.styles[styleID]
	if !ok {
		resolved.IsHeading, resolved.HeadingLevel = detectBuiltInHeading(styleID)
		sr.resolved[styleID] = resolved
		return resolved
	}

	resolved.Name = def.Name.Val
	resolved.IsHeading, resolved.HeadingLevel = sr.detectHeading(styleID)
	if !resolved.IsHeading {
		resolved.IsList, resolved.ListOrdered, resolved.ListLevel = detectListStyle(def.Name.Val)
	}

	sr.resolved[styleID] = resolved
	return resolved
}

// detectHeading walks the basedOn chain from the style itself towards its
// ancestors and takes the first heading signal found.
func (sr *StyleResolver) detectHeading(styleID string) (bool, int) {
	visited := make(map[string]bool)
	for current := styleID; current != "" && !visited[current]; {
		visited[current] = true

		if ok, level := detectBuiltInHeading(current); ok {
			return true, level
		}
		def, found := sr.styles[current]
		if !found {
			break
		}

		name := strings.ToLower(def.Name.Val)
		if name == "title" {
			return true, 1
		}
		if rest, ok := strings.CutPrefix(name, "heading"); ok {
			if level, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && level >= 1 && level <= 9 {
				return true, level
			}
			return true, 1
		}
		if def.PPr.OutlineLvl.Val != "" {
			if level := parseOutlineLevel(def.PPr.OutlineLvl.Val); level >= 0 {
				return true, level + 1
			}
		}
		current = def.BasedOn.Val
	}
	return false, 0
}

// detectBuiltInHeading checks for Word's built-in heading style IDs.
func detectBuiltInHeading(styleID string) (bool, int) {
	id := strings.ToLower(styleID)
	switch id {
	case "title":
		return true, 1
	case "subtitle":
		return true, 2
	}
	if rest, ok := strings.CutPrefix(id, "heading"); ok {
		if level, err := strconv.Atoi(rest); err == nil && level >= 1 && level <= 9 {
			return true, level
		}
	}
	return false, 0
}

// detectListStyle recognizes Word's built-in list paragraph styles by name.
func detectListStyle(name string) (isList, ordered bool, level int) {
	lower := strings.ToLower(name)
	var rest string
	switch {
	case strings.HasPrefix(lower, "list bullet"):
		rest = strings.TrimPrefix(lower, "list bullet")
	case strings.HasPrefix(lower, "list number"):
		ordered = true
		rest = strings.TrimPrefix(lower, "list number")
	default:
		return false, false, 0
	}
	if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && n > 1 {
		level = n - 1
	}
	return true, ordered, level
}

// parseOutlineLevel parses a 0-based outline level, returning -1 for values
// outside 0-8 (9 means body text).
func parseOutlineLevel(s string) int {
	level, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || level < 0 || level > 8 {
		return -1
	}
	return level
}
