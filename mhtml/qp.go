package mhtml

// DecodeQuotedPrintable resolves quoted-printable escapes in b.
//
// The decoder is lenient: "=XX" (either hex case) becomes the byte 0xXX, a
// "=" followed only by blanks before the line end is a soft line break, and
// any other "=" is kept literally. It never fails, so a single bad escape
// in a long export does not lose the whole part.
func DecodeQuotedPrintable(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != '=' {
			out = append(out, c)
			continue
		}

		j := i + 1
		for j < len(b) && (b[j] == ' ' || b[j] == '\t') {
			j++
		}
		switch {
		case j == len(b):
			i = j - 1
			continue
		case b[j] == '\n':
			i = j
			continue
		case b[j] == '\r':
			if j+1 < len(b) && b[j+1] == '\n' {
				j++
			}
			i = j
			continue
		}

		if i+2 < len(b) {
			hi, ok1 := unhex(b[i+1])
			lo, ok2 := unhex(b[i+2])
			if ok1 && ok2 {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, '=')
	}
	return out
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
