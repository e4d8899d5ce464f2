package extract

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"docanswer/internal/common"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractTXT tries an ordered list of encodings and returns the first
// non-empty decode. Windows-1258 covers legacy Vietnamese exports;
// Latin-1 is the documented last resort.
func (e *Extractor) extractTXT(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, common.WrapError(err, "read txt")
	}

	for _, cand := range []struct {
		name   string
		decode func([]byte) (string, bool)
	}{
		{"utf-8", decodeUTF8},
		{"utf-16", decodeUTF16},
		{"windows-1258", decodeCharmap(charmap.Windows1258)},
		{"latin-1", decodeCharmap(charmap.ISO8859_1)},
	} {
		text, ok := cand.decode(data)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		return Result{Text: text, Method: MethodTXT, Encoding: cand.name, Pages: 1}, nil
	}

	return Result{}, common.NewAppError("TXT_EMPTY",
		"no encoding produced text", common.ErrExtraction)
}

func decodeUTF8(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), true
}

// decodeUTF16 only accepts BOM-prefixed input; without a BOM the byte
// order is a guess and a later single-byte encoding is safer.
func decodeUTF16(data []byte) (string, bool) {
	if len(data) < 2 {
		return "", false
	}
	hasBOM := (data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)
	if !hasBOM {
		return "", false
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeCharmap(cm *charmap.Charmap) func([]byte) (string, bool) {
	return func(data []byte) (string, bool) {
		out, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}
