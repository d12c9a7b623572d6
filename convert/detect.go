package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"kfm/mathml"
)

// sniffSize is how much of the file is read to detect its type.
const sniffSize = 1024

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

// srcKind tells how formula source is loaded.
type srcKind int

const (
	kindNone srcKind = iota
	kindMathML
	kindLinear
)

func (k srcKind) String() string {
	switch k {
	case kindMathML:
		return "mathml"
	case kindLinear:
		return "linear"
	default:
		return "none"
	}
}

var mathmlType = filetype.NewType("mml", "application/mathml+xml")

func init() {
	filetype.AddMatcher(mathmlType, isMathMLMarkup)
}

// isMathMLMarkup looks at the first element of UTF-8 markup, skipping
// declarations and comments, and accepts math (with any prefix) or
// clipboard fragment.
func isMathMLMarkup(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
	for {
		buf = bytes.TrimLeft(buf, " \t\r\n")
		if len(buf) == 0 || buf[0] != '<' {
			return false
		}
		switch {
		case bytes.HasPrefix(buf, []byte("<?")):
			end := bytes.Index(buf, []byte("?>"))
			if end < 0 {
				return false
			}
			buf = buf[end+2:]
		case bytes.HasPrefix(buf, []byte("<!--")):
			end := bytes.Index(buf, []byte("-->"))
			if end < 0 {
				return false
			}
			buf = buf[end+3:]
		case bytes.HasPrefix(buf, []byte("<!")):
			end := bytes.IndexByte(buf, '>')
			if end < 0 {
				return false
			}
			buf = buf[end+1:]
		default:
			name := buf[1:]
			if end := bytes.IndexAny(name, " \t\r\n/>"); end >= 0 {
				name = name[:end]
			}
			if i := bytes.IndexByte(name, ':'); i >= 0 {
				name = name[i+1:]
			}
			return string(name) == "math" || string(name) == mathml.FragmentTag
		}
	}
}

func isUTF8BOM3(buf []byte) bool {
	return buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func detectUTF(buf []byte) srcEncoding {
	// UTF-32 LE must be checked before UTF-16 LE, they share prefix
	if len(buf) >= 4 {
		if isUTF32BigEndianBOM4(buf) {
			return encUTF32BigEndian
		}
		if isUTF32LittleEndianBOM4(buf) {
			return encUTF32LittleEndian
		}
	}
	if len(buf) >= 3 && isUTF8BOM3(buf) {
		return encUTF8
	}
	if len(buf) >= 2 {
		if isUTF16BigEndianBOM2(buf) {
			return encUTF16BigEndian
		}
		if isUTF16LittleEndianBOM2(buf) {
			return encUTF16LittleEndian
		}
	}
	return encUnknown
}

// selectReader returns reader producing UTF-8 without BOM.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	default:
		panic("unsupported encoding")
	}
}

// sniff decides on formula kind by file name and its first bytes.
// MathML files are checked by content, linear formula strings could be
// anything and are recognized by extension only.
func sniff(name string, head []byte) (srcKind, srcEncoding) {
	enc := detectUTF(head)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mml", ".mathml", ".xml":
		// partial decoding is fine, only beginning matters
		decoded, _ := io.ReadAll(selectReader(bytes.NewReader(head), enc))
		if filetype.Is(decoded, mathmlType.Extension) {
			return kindMathML, enc
		}
	case ".txt", ".kfs":
		return kindLinear, enc
	}
	return kindNone, encUnknown
}

func readHead(r io.Reader) ([]byte, error) {
	head := make([]byte, sniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return head[:n], nil
}

func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

func isFormulaFile(path string) (srcKind, srcEncoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return kindNone, encUnknown, err
	}
	defer f.Close()

	head, err := readHead(f)
	if err != nil {
		return kindNone, encUnknown, err
	}
	kind, enc := sniff(path, head)
	return kind, enc, nil
}

func isFormulaInArchive(f *zip.File) (srcKind, srcEncoding, error) {
	r, err := f.Open()
	if err != nil {
		return kindNone, encUnknown, err
	}
	defer r.Close()

	head, err := readHead(r)
	if err != nil {
		return kindNone, encUnknown, err
	}
	kind, enc := sniff(f.FileHeader.Name, head)
	return kind, enc, nil
}
