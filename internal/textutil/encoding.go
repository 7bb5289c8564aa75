package textutil

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidUTF8 is returned for input that is neither valid UTF-8 nor
// BOM-marked UTF-16.
var ErrInvalidUTF8 = errors.New("textutil: input is not valid UTF-8")

type unicodeEncoding int

const (
	encodingUnknown unicodeEncoding = iota
	encodingUTF8BOM
	encodingUTF16LE
	encodingUTF16BE
)

// DetectBOM reports whether content starts with a UTF-8 or UTF-16 byte order mark.
func DetectBOM(content []byte) bool {
	return detectUnicodeEncoding(content) != encodingUnknown
}

// DecodeText turns raw Markdown input into NFC-normalized UTF-8. A UTF-8 BOM
// is stripped; BOM-marked UTF-16 is transcoded.
func DecodeText(content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}

	var decoded []byte
	switch detectUnicodeEncoding(content) {
	case encodingUTF8BOM:
		decoded = content[3:]
	case encodingUTF16LE:
		out, err := decodeUTF16(content, unicode.LittleEndian)
		if err != nil {
			return "", err
		}
		decoded = out
	case encodingUTF16BE:
		out, err := decodeUTF16(content, unicode.BigEndian)
		if err != nil {
			return "", err
		}
		decoded = out
	default:
		decoded = content
	}

	if !utf8.Valid(decoded) {
		return "", ErrInvalidUTF8
	}
	return norm.NFC.String(string(decoded)), nil
}

func detectUnicodeEncoding(sample []byte) unicodeEncoding {
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return encodingUTF8BOM
	}
	if len(sample) >= 2 {
		switch {
		case sample[0] == 0xFF && sample[1] == 0xFE:
			return encodingUTF16LE
		case sample[0] == 0xFE && sample[1] == 0xFF:
			return encodingUTF16BE
		}
	}
	return encodingUnknown
}

func decodeUTF16(content []byte, endian unicode.Endianness) ([]byte, error) {
	decoder := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	out, err := decoder.Bytes(content)
	if err != nil {
		return nil, fmt.Errorf("textutil: decode UTF-16: %w", err)
	}
	return out, nil
}
