package doctomd

import (
	"errors"
	"fmt"

	"github.com/trezero/docTomd/mhtml"
	"github.com/trezero/docTomd/textenc"
)

var (
	// ErrDecodingExhausted is returned when no configured encoding decodes
	// the input and the lossy fallback is disabled.
	ErrDecodingExhausted = textenc.ErrDecodingExhausted

	// ErrMalformedMimeStructure marks a degraded MHTML extraction. It is only
	// ever reported as a warning.
	ErrMalformedMimeStructure = mhtml.ErrMalformedStructure

	// ErrUnsupportedOrCorruptDocument is returned when a Word or RTF parser
	// rejects the document.
	ErrUnsupportedOrCorruptDocument = errors.New("unsupported or corrupt document")

	// ErrUnclassifiableContent is returned for empty or binary input that
	// matches no known format.
	ErrUnclassifiableContent = errors.New("unclassifiable content")

	// ErrUnreadableSource is returned when the input file cannot be read.
	ErrUnreadableSource = errors.New("unreadable source")

	// ErrInvalidOptions is returned when the options name an unknown
	// encoding or a negative body width.
	ErrInvalidOptions = errors.New("invalid options")
)

// Stage is a step of the conversion pipeline.
type Stage int

const (
	StageLoaded Stage = iota
	StageDecoded
	StageClassified
	StageExtracted
	StageRendered
	StageNormalized
	StageDone
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageDecoded:
		return "decoded"
	case StageClassified:
		return "classified"
	case StageExtracted:
		return "extracted"
	case StageRendered:
		return "rendered"
	case StageNormalized:
		return "normalized"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Error is a conversion failure. Stage is the stage that could not be
// reached. errors.Is matches both Kind and Err.
type Error struct {
	Kind   error
	Stage  Stage
	Source string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + e.Err.Error()
	}
	if e.Source == "" {
		return fmt.Sprintf("doctomd: %s: %s", e.Stage, msg)
	}
	return fmt.Sprintf("doctomd: %s: %s: %s", e.Source, e.Stage, msg)
}

// Unwrap returns the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil || e.Err == e.Kind {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
