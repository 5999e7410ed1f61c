package msdoc

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/trezero/docTomd/textenc"
)

const (
	wordIdent = 0xA5EC

	// Word 97 is the oldest binary format with a piece table in the CLX.
	minFibVersion = 0x00C0

	flagWhichTable = 0x0200
	flagEncrypted  = 0x0100

	offFlags   = 0x0A
	offCcpText = 0x4C
	offFcClx   = 0x1A2
	offLcbClx  = 0x1A6
	fibMinSize = offLcbClx + 4

	compressedFlag = 0x40000000
	pcdSize        = 8
)

// fib holds the parts of the File Information Block needed to locate text.
type fib struct {
	version   uint16
	encrypted bool
	tableName string
	ccpText   uint32
	fcClx     uint32
	lcbClx    uint32
}

func parseFIB(b []byte) (fib, error) {
	if len(b) < fibMinSize {
		return fib{}, fmt.Errorf("%w: WordDocument stream too short", ErrInvalidDocument)
	}
	if binary.LittleEndian.Uint16(b) != wordIdent {
		return fib{}, fmt.Errorf("%w: bad FIB identifier", ErrInvalidDocument)
	}
	f := fib{
		version: binary.LittleEndian.Uint16(b[2:]),
		ccpText: binary.LittleEndian.Uint32(b[offCcpText:]),
		fcClx:   binary.LittleEndian.Uint32(b[offFcClx:]),
		lcbClx:  binary.LittleEndian.Uint32(b[offLcbClx:]),
	}
	flags := binary.LittleEndian.Uint16(b[offFlags:])
	f.encrypted = flags&flagEncrypted != 0
	f.tableName = "0Table"
	if flags&flagWhichTable != 0 {
		f.tableName = "1Table"
	}
	if f.version < minFibVersion {
		return f, fmt.Errorf("%w: FIB version %#04x predates Word 97", ErrUnsupported, f.version)
	}
	return f, nil
}

// piece is one entry of the piece table: a run of character positions
// stored contiguously in the WordDocument stream.
type piece struct {
	cpStart, cpEnd uint32
	fc             uint32
	compressed     bool
}

// parsePieceTable locates the PlcPcd inside the CLX, skipping any leading
// property modifier (Prc) entries.
func parsePieceTable(table []byte, f fib) ([]piece, error) {
	end := uint64(f.fcClx) + uint64(f.lcbClx)
	if f.lcbClx == 0 || end > uint64(len(table)) {
		return nil, fmt.Errorf("%w: CLX out of range", ErrInvalidDocument)
	}
	clx := table[f.fcClx:end]

	pos := 0
	for pos < len(clx) {
		switch clx[pos] {
		case 0x01:
			if pos+3 > len(clx) {
				return nil, fmt.Errorf("%w: truncated Prc", ErrInvalidDocument)
			}
			pos += 3 + int(binary.LittleEndian.Uint16(clx[pos+1:]))
		case 0x02:
			if pos+5 > len(clx) {
				return nil, fmt.Errorf("%w: truncated Pcdt", ErrInvalidDocument)
			}
			lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
			start := pos + 5
			if lcb < 4 || start+lcb > len(clx) {
				return nil, fmt.Errorf("%w: PlcPcd out of range", ErrInvalidDocument)
			}
			return decodePlcPcd(clx[start : start+lcb])
		default:
			return nil, fmt.Errorf("%w: unexpected CLX entry %#02x", ErrInvalidDocument, clx[pos])
		}
	}
	return nil, fmt.Errorf("%w: no piece table", ErrInvalidDocument)
}

func decodePlcPcd(plc []byte) ([]piece, error) {
	// n+1 character positions followed by n 8-byte piece descriptors.
	n := (len(plc) - 4) / (4 + pcdSize)
	if n <= 0 || (n+1)*4+n*pcdSize != len(plc) {
		return nil, fmt.Errorf("%w: malformed PlcPcd", ErrInvalidDocument)
	}
	pieces := make([]piece, n)
	pcds := plc[(n+1)*4:]
	for i := range pieces {
		fc := binary.LittleEndian.Uint32(pcds[i*pcdSize+2:])
		pieces[i] = piece{
			cpStart:    binary.LittleEndian.Uint32(plc[i*4:]),
			cpEnd:      binary.LittleEndian.Uint32(plc[(i+1)*4:]),
			fc:         fc &^ compressedFlag,
			compressed: fc&compressedFlag != 0,
		}
		if pieces[i].compressed {
			pieces[i].fc /= 2
		}
	}
	return pieces, nil
}

// mainText decodes the main document story: the first ccpText characters.
// Compressed pieces are Windows-1252, the rest UTF-16LE.
func mainText(wordDoc []byte, pieces []piece, ccpText uint32) (string, error) {
	_, ansi, _ := textenc.Lookup(textenc.CP1252)
	_, wide, _ := textenc.Lookup(textenc.UTF16LE)

	var sb strings.Builder
	for _, p := range pieces {
		if p.cpStart >= ccpText {
			break
		}
		cpEnd := min(p.cpEnd, ccpText)
		if cpEnd <= p.cpStart {
			continue
		}
		count := uint64(cpEnd - p.cpStart)

		width := uint64(2)
		dec := wide.NewDecoder()
		if p.compressed {
			width = 1
			dec = ansi.NewDecoder()
		}
		start := uint64(p.fc)
		end := start + count*width
		if end > uint64(len(wordDoc)) {
			return "", fmt.Errorf("%w: text piece out of range", ErrInvalidDocument)
		}
		text, err := dec.Bytes(wordDoc[start:end])
		if err != nil {
			return "", fmt.Errorf("%w: decoding text piece: %v", ErrInvalidDocument, err)
		}
		sb.Write(text)
	}
	return sb.String(), nil
}
