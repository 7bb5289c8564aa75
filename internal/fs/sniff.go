package fs

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kk-code-lab/mdblocks/internal/textutil"
)

const textDetectionSampleSize = 4096

var binaryExtensions = map[string]struct{}{
	".7z":   {},
	".bin":  {},
	".bmp":  {},
	".docx": {},
	".exe":  {},
	".gif":  {},
	".gz":   {},
	".jpeg": {},
	".jpg":  {},
	".pdf":  {},
	".png":  {},
	".so":   {},
	".tar":  {},
	".wasm": {},
	".webp": {},
	".zip":  {},
}

// IsTextFile reports whether content can be Markdown text. Known binary
// extensions on path are rejected before the content is sniffed.
func IsTextFile(path string, content []byte) bool {
	if looksBinaryByExtension(path) {
		return false
	}
	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > textDetectionSampleSize {
		sample = trimPartialRune(sample[:textDetectionSampleSize])
	}
	if textutil.DetectBOM(sample) {
		return true
	}
	if bytes.IndexByte(sample, 0x00) != -1 {
		return false
	}
	return utf8.Valid(sample)
}

func looksBinaryByExtension(path string) bool {
	if path == "" {
		return false
	}
	_, ok := binaryExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off by sampling.
func trimPartialRune(sample []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(sample); i++ {
		if utf8.RuneStart(sample[len(sample)-i]) {
			if !utf8.FullRune(sample[len(sample)-i:]) {
				return sample[:len(sample)-i]
			}
			break
		}
	}
	return sample
}
