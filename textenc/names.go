package textenc

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Canonical encoding names reported in Decoded.Encoding.
const (
	UTF8    = "utf-8"
	Latin1  = "latin-1"
	CP1252  = "cp1252"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
)

var aliases = map[string]string{
	"utf-8":        UTF8,
	"utf8":         UTF8,
	"latin-1":      Latin1,
	"latin1":       Latin1,
	"l1":           Latin1,
	"iso-8859-1":   Latin1,
	"iso8859-1":    Latin1,
	"iso_8859-1":   Latin1,
	"cp1252":       CP1252,
	"windows-1252": CP1252,
	"win-1252":     CP1252,
	"utf-16le":     UTF16LE,
	"utf-16be":     UTF16BE,
}

var builtin = map[string]encoding.Encoding{
	UTF8:    unicode.UTF8,
	Latin1:  charmap.ISO8859_1,
	CP1252:  charmap.Windows1252,
	UTF16LE: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	UTF16BE: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
}

// Lookup resolves an encoding name to its canonical name and decoder.
// Names outside the built-in alias table are looked up in the IANA index,
// in which case the canonical name is the lower-cased input.
func Lookup(name string) (string, encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", nil, fmt.Errorf("textenc: empty encoding name")
	}
	if canonical, ok := aliases[key]; ok {
		return canonical, builtin[canonical], nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil {
		return "", nil, fmt.Errorf("textenc: unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return "", nil, fmt.Errorf("textenc: unsupported encoding %q", name)
	}
	return key, enc, nil
}

// Valid reports whether name can be resolved by Lookup.
func Valid(name string) bool {
	_, _, err := Lookup(name)
	return err == nil
}
