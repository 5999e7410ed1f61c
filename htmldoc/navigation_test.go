package htmldoc

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const mainContent = `<main><h1>Title</h1><p>Content</p></main>`

func TestClean_Navigation(t *testing.T) {
	tests := []struct {
		name string
		body string
		mode NavigationExclusionMode
		keep []string
		drop []string
	}{
		{
			name: "none keeps everything",
			body: `<nav><p>Home | About</p></nav>` + mainContent + `<footer><p>Copyright 2024</p></footer>`,
			mode: NavigationExclusionNone,
			keep: []string{"Title", "Content", "Home", "Copyright"},
		},
		{
			name: "nav element",
			body: `<nav><a href="/">Home</a><a href="/about">About</a></nav>` + mainContent,
			mode: NavigationExclusionExplicit,
			keep: []string{"Title", "Content"},
			drop: []string{"Home", "About"},
		},
		{
			name: "aside element",
			body: `<aside><p>Related pages</p></aside>` + mainContent,
			mode: NavigationExclusionExplicit,
			keep: []string{"Content"},
			drop: []string{"Related pages"},
		},
		{
			name: "page header but not article header",
			body: `<header><h1>Space Home</h1></header><article><header><h2>Article Header</h2></header><p>Article content</p></article>`,
			mode: NavigationExclusionExplicit,
			keep: []string{"Article Header", "Article content"},
			drop: []string{"Space Home"},
		},
		{
			name: "page footer but not article footer",
			body: `<article><p>Article content</p><footer><p>Written by Ann</p></footer></article><footer><p>Generated by the wiki</p></footer>`,
			mode: NavigationExclusionExplicit,
			keep: []string{"Article content", "Written by Ann"},
			drop: []string{"Generated by the wiki"},
		},
		{
			name: "navigation role",
			body: `<div role="navigation"><a href="/">Home</a></div>` + mainContent,
			mode: NavigationExclusionExplicit,
			keep: []string{"Content"},
			drop: []string{"Home"},
		},
		{
			name: "banner role at top level",
			body: `<div role="banner"><h1>Site Banner</h1></div>` + mainContent,
			mode: NavigationExclusionExplicit,
			keep: []string{"Title"},
			drop: []string{"Site Banner"},
		},
		{
			name: "explicit ignores class names",
			body: `<div class="sidebar"><p>Recent changes</p></div>` + mainContent,
			mode: NavigationExclusionExplicit,
			keep: []string{"Recent changes", "Content"},
		},
		{
			name: "class names in standard mode",
			body: `<div class="sidebar"><p>Recent changes</p></div><div class="main-navigation"><a href="/">Home</a></div>` + mainContent,
			mode: NavigationExclusionStandard,
			keep: []string{"Title", "Content"},
			drop: []string{"Recent changes", "Home"},
		},
		{
			name: "footer id",
			body: mainContent + `<div id="footer"><p>Copyright 2024</p></div>`,
			mode: NavigationExclusionStandard,
			keep: []string{"Content"},
			drop: []string{"Copyright"},
		},
		{
			name: "header and footer inside a single wrapper",
			body: `<div id="wrapper"><header><h1>Site Header</h1></header>` + mainContent + `<footer><p>Copyright</p></footer></div>`,
			mode: NavigationExclusionStandard,
			keep: []string{"Title", "Content"},
			drop: []string{"Site Header", "Copyright"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Clean("<html><body>"+tt.body+"</body></html>", Options{Navigation: tt.mode})
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			for _, want := range tt.keep {
				if !strings.Contains(got, want) {
					t.Errorf("Clean() dropped %q:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.drop {
				if strings.Contains(got, unwanted) {
					t.Errorf("Clean() kept %q:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestClean_LinkLists(t *testing.T) {
	src := `<html><body>
		<div class="related-links">
			<a href="/1">Link 1</a>
			<a href="/2">Link 2</a>
			<a href="/3">Link 3</a>
			<a href="/4">Link 4</a>
			<a href="/5">Link 5</a>
		</div>
		<main>
			<h1>Main Article</h1>
			<p>This is the main content with some text that is not links.</p>
		</main>
	</body></html>`

	standard, _, _ := Clean(src, Options{Navigation: NavigationExclusionStandard})
	if !strings.Contains(standard, "Link 1") {
		t.Error("standard mode dropped the link list")
	}

	aggressive, _, _ := Clean(src, Options{Navigation: NavigationExclusionAggressive})
	if strings.Contains(aggressive, "Link 1") {
		t.Error("aggressive mode kept the link list")
	}
	if !strings.Contains(aggressive, "Main Article") {
		t.Error("aggressive mode dropped the article")
	}
}

func TestClean_ConfluenceChrome(t *testing.T) {
	src := `<html><body>
		<div id="page">
			<div id="main" class="aui-page-panel">
				<div id="main-header">
					<div id="breadcrumb-section"><ol id="breadcrumbs"><li><a href="index.html">Engineering</a></li></ol></div>
					<h1 id="title-heading" class="pagetitle">Release Notes</h1>
				</div>
				<div id="content" class="view">
					<div class="page-metadata">Created by Ann Lee, last modified on Mar 02, 2024</div>
					<div id="main-content" class="wiki-content group"><p>Body text</p></div>
					<div id="likes-and-labels-container"><span>Labels: release</span></div>
				</div>
			</div>
			<div id="footer" role="contentinfo"><section class="footer-body"><p>Document generated by Confluence</p></section></div>
		</div>
	</body></html>`

	got, _, err := Clean(src, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, want := range []string{"Release Notes", "Body text"} {
		if !strings.Contains(got, want) {
			t.Errorf("Clean() dropped %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"Engineering", "Created by", "Labels:", "Document generated"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("Clean() kept %q:\n%s", unwanted, got)
		}
	}
}

func TestChromeDetector_Match(t *testing.T) {
	tests := []struct {
		fragment string
		mode     NavigationExclusionMode
		want     string
	}{
		{`<nav>x</nav>`, NavigationExclusionExplicit, "element"},
		{`<div role="complementary">x</div>`, NavigationExclusionExplicit, "role"},
		{`<div class="nav">x</div>`, NavigationExclusionStandard, "name"},
		{`<div class="top-nav">x</div>`, NavigationExclusionStandard, "name"},
		{`<div class="nav-bar">x</div>`, NavigationExclusionStandard, "name"},
		{`<div id="footer">x</div>`, NavigationExclusionStandard, "name"},
		{`<div class="pageMetadata">x</div>`, NavigationExclusionStandard, "name"},
		{`<div class="site-footer">x</div>`, NavigationExclusionStandard, "name"},
		{`<ul><li><a>a</a></li><li><a>b</a></li><li><a>c</a></li><li><a>d</a></li></ul>`, NavigationExclusionAggressive, "links"},
		{`<div class="navigator">x</div>`, NavigationExclusionAggressive, ""},
		{`<div class="mynavigationsystem">x</div>`, NavigationExclusionAggressive, ""},
		{`<ul><li><a>a</a></li><li><a>b</a></li></ul>`, NavigationExclusionAggressive, ""},
		{`<nav>x</nav>`, NavigationExclusionNone, ""},
	}
	for _, tt := range tests {
		root, err := html.Parse(strings.NewReader("<html><body>" + tt.fragment + "</body></html>"))
		if err != nil {
			t.Fatal(err)
		}
		d := newChromeDetector(tt.mode, root)
		got, ok := d.match(d.body.FirstChild)
		if ok != (tt.want != "") || got != tt.want {
			t.Errorf("match(%s, %s) = %q, %v; want %q", tt.fragment, tt.mode, got, ok, tt.want)
		}
	}
}

func TestDashCase(t *testing.T) {
	tests := map[string]string{
		"pageMetadata": "page-metadata",
		"NavBar":       "nav-bar",
		"footer":       "footer",
	}
	for in, want := range tests {
		if got := dashCase(in); got != want {
			t.Errorf("dashCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	if got := DefaultOptions().Navigation; got != NavigationExclusionStandard {
		t.Errorf("DefaultOptions().Navigation = %v, want standard", got)
	}
}
