package doctomd

import (
	"fmt"
	"strings"
)

// Warning codes.
const (
	WarnLossyDecoding  = "lossy_decoding"
	WarnMimeStructure  = "mime_structure"
	WarnFrontmatter    = "frontmatter"
	WarnOCRUnavailable = "ocr_unavailable"
	WarnOCRFailed      = "ocr_failed"
	WarnEmptyOutput    = "empty_output"
)

// Warning is a non-fatal issue met during conversion.
type Warning struct {
	Code    string
	Message string
	Stage   Stage
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Code, w.Stage, w.Message)
}

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
