// Package frontmatter reads and writes the YAML block that precedes a
// converted Markdown document.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Metadata is the provenance written above each converted document.
type Metadata struct {
	Title         string    `yaml:"title"`
	SourceFile    string    `yaml:"source_file"`
	ConvertedDate time.Time `yaml:"converted_date"`
	Format        string    `yaml:"format"`
	Encoding      string    `yaml:"encoding,omitempty"`
	DocID         string    `yaml:"doc_id,omitempty"`
	Degraded      bool      `yaml:"degraded,omitempty"`
	Warnings      []string  `yaml:"warnings,omitempty"`

	// Extra holds keys of a parsed block that have no field above.
	Extra map[string]any `yaml:",inline"`
}

// yamlFormats restricts parsing to YAML blocks decoded with yaml.v3.
var yamlFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("---yaml", "---", yaml.Unmarshal),
}

// Render returns body prefixed with a YAML block for meta.
func Render(meta Metadata, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// Split separates a leading YAML block from markdown. found is false and
// body is markdown unchanged when there is no block.
func Split(markdown string) (meta Metadata, body string, found bool, err error) {
	trimmed := strings.TrimLeft(markdown, " \t\r\n")
	if !strings.HasPrefix(trimmed, delimiter) {
		return Metadata{}, markdown, false, nil
	}

	rest, err := frontmatter.Parse(strings.NewReader(markdown), &meta, yamlFormats...)
	if err != nil {
		return Metadata{}, markdown, false, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if len(rest) == len(markdown) {
		// Opening delimiter without a closing one.
		return Metadata{}, markdown, false, nil
	}
	return meta, strings.TrimLeft(string(rest), "\r\n"), true, nil
}
