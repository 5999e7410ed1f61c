package htmldoc

// NavigationExclusionMode controls how navigation, headers, and footers are filtered.
type NavigationExclusionMode int

const (
	// NavigationExclusionNone includes all content without filtering.
	NavigationExclusionNone NavigationExclusionMode = iota

	// NavigationExclusionExplicit skips only explicit semantic HTML5 elements:
	// <nav>, <aside>, and ARIA roles (role="navigation", role="complementary").
	// <header> and <footer> are only skipped when they are direct children of <body>
	// or a single top-level wrapper element.
	NavigationExclusionExplicit

	// NavigationExclusionStandard (default) combines explicit element detection with
	// class/id pattern matching. This catches site navigation and the page chrome
	// of wiki exports (breadcrumbs, page metadata, generated-by footers) even when
	// the markup is not semantic.
	NavigationExclusionStandard

	// NavigationExclusionAggressive adds link-density heuristics to standard detection.
	// Sections with very high link-to-text ratios are excluded. This may occasionally
	// exclude legitimate content like link-heavy documentation or "related pages" sections.
	NavigationExclusionAggressive
)

// String returns the mode name.
func (m NavigationExclusionMode) String() string {
	switch m {
	case NavigationExclusionNone:
		return "none"
	case NavigationExclusionExplicit:
		return "explicit"
	case NavigationExclusionStandard:
		return "standard"
	case NavigationExclusionAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// Options controls Clean.
type Options struct {
	// Navigation selects how page chrome is detected and dropped.
	Navigation NavigationExclusionMode
}

// DefaultOptions returns Standard navigation exclusion.
func DefaultOptions() Options {
	return Options{
		Navigation: NavigationExclusionStandard,
	}
}

// Metadata is read from the document head.
type Metadata struct {
	Title string
	// Meta holds <meta name|property=... content=...> pairs.
	Meta map[string]string
}
