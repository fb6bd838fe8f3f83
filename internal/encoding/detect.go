package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decoders maps chardet charset names to the decoders we trust for log files
// that went through a spreadsheet on an Arabic or Western Windows desktop.
var decoders = map[string]encoding.Encoding{
	"windows-1256": charmap.Windows1256,
	"ISO-8859-6":   charmap.ISO8859_6,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-1":   charmap.Windows1252,
}

// NewUTF8Reader returns r decoded to UTF-8. A byte-order mark wins, then
// plain UTF-8, then whatever chardet recognises; anything else is read as
// Windows-1256, the codepage Excel saves Arabic CSVs in.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	if enc := Detect(buf); enc != nil {
		return transform.NewReader(br, enc.NewDecoder()), nil
	}

	return transform.NewReader(br, charmap.Windows1256.NewDecoder()), nil
}

// Detect guesses a legacy single-byte charset for buf. Nil means unknown.
func Detect(buf []byte) encoding.Encoding {
	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err != nil {
		return nil
	}

	return decoders[result.Charset]
}
