// Package textenc resolves the text encoding of raw document bytes.
//
// A Resolver tries an ordered chain of candidate encodings against the full
// byte sequence and accepts the first one that decodes cleanly:
//
//	dec := textenc.Resolve(data)
//	fmt.Println(dec.Encoding) // "utf-8", "latin-1", ...
//
// The default chain is UTF-8, then Latin-1, then CP1252. Latin-1 maps every
// byte, so with the default chain Resolve never fails. When the chain is
// customised and every candidate fails, a lossy UTF-8 decode is used unless
// the resolver was built WithoutLossyFallback.
package textenc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrDecodingExhausted is returned when no candidate encoding decodes the
// input and the lossy fallback is disabled.
var ErrDecodingExhausted = errors.New("textenc: no candidate encoding could decode the input")

// DefaultChain is the encoding order used by Resolve.
var DefaultChain = []string{"utf-8", "latin-1", "cp1252"}

const bom = "\uFEFF"

// Decoded is text together with the encoding that produced it.
type Decoded struct {
	Text     string
	Encoding string
	// Lossy is set when the text came from the replacing UTF-8 fallback.
	Lossy bool
}

// Resolver decodes bytes using an ordered list of candidate encodings.
// A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	chain []candidate
	lossy bool
}

type candidate struct {
	name string
	enc  encoding.Encoding
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithoutLossyFallback disables the final replacing UTF-8 decode, so Resolve
// returns ErrDecodingExhausted when the chain is exhausted.
func WithoutLossyFallback() Option {
	return func(r *Resolver) {
		r.lossy = false
	}
}

// NewResolver builds a resolver for the given encoding names, in order.
// Names are matched case-insensitively against common aliases and then
// against the IANA registry.
func NewResolver(names []string, opts ...Option) (*Resolver, error) {
	r := &Resolver{lossy: true}
	for _, name := range names {
		canonical, enc, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		r.chain = append(r.chain, candidate{name: canonical, enc: enc})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

var defaultResolver = mustResolver(DefaultChain)

func mustResolver(names []string) *Resolver {
	r, err := NewResolver(names)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the resolver for DefaultChain.
func Default() *Resolver {
	return defaultResolver
}

// Resolve decodes raw with the default chain. It never fails.
func Resolve(raw []byte) Decoded {
	dec, _ := defaultResolver.Resolve(raw)
	return dec
}

// Names returns the canonical names of the resolver's chain.
func (r *Resolver) Names() []string {
	names := make([]string, len(r.chain))
	for i, c := range r.chain {
		names[i] = c.name
	}
	return names
}

// Prepend returns a resolver that tries name before the receiver's chain.
// Duplicates are removed, and an unknown name leaves the chain unchanged.
func (r *Resolver) Prepend(name string) *Resolver {
	canonical, enc, err := Lookup(name)
	if err != nil {
		return r
	}
	out := &Resolver{lossy: r.lossy, chain: []candidate{{name: canonical, enc: enc}}}
	for _, c := range r.chain {
		if c.name != canonical {
			out.chain = append(out.chain, c)
		}
	}
	return out
}

// Resolve decodes raw with the first candidate that succeeds.
func (r *Resolver) Resolve(raw []byte) (Decoded, error) {
	for _, c := range r.chain {
		text, ok := decodeStrict(c.enc, raw)
		if ok {
			return Decoded{Text: strings.TrimPrefix(text, bom), Encoding: c.name}, nil
		}
	}

	if !r.lossy {
		return Decoded{}, ErrDecodingExhausted
	}

	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		out = []byte(strings.ToValidUTF8(string(raw), "\uFFFD"))
	}
	return Decoded{Text: strings.TrimPrefix(string(out), bom), Encoding: UTF8, Lossy: true}, nil
}

// decodeStrict decodes raw, reporting false if the decoder errors or had to
// substitute a replacement character.
func decodeStrict(enc encoding.Encoding, raw []byte) (string, bool) {
	if enc == unicode.UTF8 {
		if _, _, err := transform.Bytes(encoding.UTF8Validator, raw); err != nil {
			return "", false
		}
		return string(raw), true
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", false
	}
	if containsReplacement(out) {
		return "", false
	}
	return string(out), true
}

func containsReplacement(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError {
			return true
		}
		b = b[size:]
	}
	return false
}

// Encode converts text back into bytes of the named encoding.
func Encode(text, name string) ([]byte, error) {
	_, enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return []byte(text), nil
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("encoding text as %s: %w", name, err)
	}
	return out, nil
}
