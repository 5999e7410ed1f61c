package rtfdoc

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokGroupStart
	tokGroupEnd
	tokControlWord
	tokControlSymbol
	tokHex
	tokText
)

type token struct {
	kind     tokenKind
	word     string // control word name, or the symbol character
	param    int
	hasParam bool
	data     []byte // text bytes, or the single byte of a \'hh escape
}

// lexer splits RTF source into tokens. CR and LF outside control words
// carry no meaning and are dropped from text.
type lexer struct {
	src []byte
	pos int
}

func (l *lexer) next() token {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '{':
			l.pos++
			return token{kind: tokGroupStart}
		case '}':
			l.pos++
			return token{kind: tokGroupEnd}
		case '\\':
			return l.control()
		case '\r', '\n':
			l.pos++
		default:
			return l.text()
		}
	}
	return token{kind: tokEOF}
}

func (l *lexer) text() token {
	var out []byte
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '{' || c == '}' || c == '\\' {
			break
		}
		if c != '\r' && c != '\n' {
			out = append(out, c)
		}
		l.pos++
	}
	return token{kind: tokText, data: out}
}

func (l *lexer) control() token {
	l.pos++ // backslash
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}
	}
	c := l.src[l.pos]

	if !isLetter(c) {
		l.pos++
		if c == '\'' {
			if l.pos+2 <= len(l.src) {
				if b, ok := hexByte(l.src[l.pos], l.src[l.pos+1]); ok {
					l.pos += 2
					return token{kind: tokHex, data: []byte{b}}
				}
			}
			return l.next()
		}
		return token{kind: tokControlSymbol, word: string(c)}
	}

	start := l.pos
	for l.pos < len(l.src) && isLetter(l.src[l.pos]) && l.pos-start < 32 {
		l.pos++
	}
	tok := token{kind: tokControlWord, word: string(l.src[start:l.pos])}

	neg := false
	if l.pos < len(l.src) && l.src[l.pos] == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		neg = true
		l.pos++
	}
	digits := 0
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) && digits < 10 {
		tok.param = tok.param*10 + int(l.src[l.pos]-'0')
		tok.hasParam = true
		l.pos++
		digits++
	}
	if neg {
		tok.param = -tok.param
	}
	// A single space delimits the control word and is part of it.
	if l.pos < len(l.src) && l.src[l.pos] == ' ' {
		l.pos++
	}

	// \binN is followed by N bytes of raw data.
	if tok.word == "bin" && tok.param > 0 {
		l.pos = min(l.pos+tok.param, len(l.src))
	}
	return tok
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexVal(hi)
	l, ok2 := hexVal(lo)
	return h<<4 | l, ok1 && ok2
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
