package project

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// isArchiveFile reports whether path names zip archive. Extension is checked
// first, content is sniffed to make sure.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype needs at most 262 bytes of header
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks for byte order mark. UTF-32LE mark starts with UTF-16LE
// one so longer marks are checked first.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

func decoder(enc srcEncoding) encoding.Encoding {
	switch enc {
	case encUnknown:
		return nil
	case encUTF8:
		return unicode.UTF8BOM
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM)
	default:
		// this should never happen
		panic(fmt.Sprintf("unexpected source encoding %d", enc))
	}
}

// selectReader wraps r with decoder producing UTF-8 without BOM.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	if e := decoder(enc); e != nil {
		return transform.NewReader(r, e.NewDecoder())
	}
	return r
}

var reCharset = regexp.MustCompile(`^@charset\s+"([^"]+)"\s*;?`)

// DecodeSource returns source text as UTF-8. Byte order mark wins, then
// leading @charset rule is honoured, otherwise source is expected to be UTF-8
// already. Declared charset is rewritten to utf-8 since that is what output
// will be.
func DecodeSource(data []byte) (string, error) {
	if enc := detectUTF(data); enc != encUnknown {
		out, err := io.ReadAll(selectReader(bytes.NewReader(data), enc))
		if err != nil {
			return "", fmt.Errorf("unable to decode source: %w", err)
		}
		return string(out), nil
	}

	m := reCharset.FindSubmatchIndex(data)
	if m == nil {
		return string(data), nil
	}
	label := string(data[m[2]:m[3]])
	e, name := charset.Lookup(label)
	if e == nil {
		return "", fmt.Errorf("unknown charset %q", label)
	}
	if name == "utf-8" {
		return string(data), nil
	}
	out, err := e.NewDecoder().Bytes(data[m[1]:])
	if err != nil {
		return "", fmt.Errorf("unable to decode source from %s: %w", name, err)
	}
	return `@charset "utf-8"` + string(out), nil
}
