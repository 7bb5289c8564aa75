package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// StdinName labels input read from standard input.
const StdinName = "-"

// ErrBinaryInput is returned for inputs that do not look like text.
var ErrBinaryInput = errors.New("fs: input looks binary")

// Input is one Markdown source.
type Input struct {
	Name    string
	Content []byte
	// Truncated is set when the source was larger than the read limit.
	Truncated bool
}

// ReadInput reads path, or standard input when path is "-". At most limit
// bytes plus one are read so oversized sources are detected without loading
// them fully; limit <= 0 reads everything.
func ReadInput(path string, limit int64, stdin io.Reader) (Input, error) {
	if path == StdinName {
		return readFrom(StdinName, stdin, limit)
	}
	f, err := os.Open(path)
	if err != nil {
		return Input{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	return readFrom(path, f, limit)
}

func readFrom(name string, r io.Reader, limit int64) (Input, error) {
	if r == nil {
		return Input{}, fmt.Errorf("read %s: no reader", name)
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("read %s: %w", name, err)
	}
	in := Input{Name: name, Content: content}
	if limit > 0 && int64(len(content)) > limit {
		in.Truncated = true
	}
	if !IsTextFile(name, content) {
		return in, fmt.Errorf("%s: %w", name, ErrBinaryInput)
	}
	return in, nil
}
