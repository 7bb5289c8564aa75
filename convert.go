package mdblocks

import (
	"fmt"

	"github.com/kk-code-lab/mdblocks/internal/textutil"
	"github.com/kk-code-lab/mdblocks/markdown"
)

// Convert turns Markdown text into blocks. Malformed Markdown never fails;
// the only errors are *ResourceLimitError and *InternalConsistencyError.
func Convert(text string, opts ...Option) ([]Block, error) {
	return convert(text, buildOptions(opts))
}

// ConvertBytes decodes raw input (UTF-8 with or without BOM, or BOM-marked
// UTF-16), normalizes it to NFC and converts it.
func ConvertBytes(content []byte, opts ...Option) ([]Block, error) {
	o := buildOptions(opts)
	if err := checkSize(len(content), o); err != nil {
		return nil, err
	}
	text, err := textutil.DecodeText(content)
	if err != nil {
		return nil, fmt.Errorf("mdblocks: decode input: %w", err)
	}
	return convert(text, o)
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o.normalized()
}

func checkSize(size int, o Options) error {
	if o.MaxInputBytes > 0 && size > o.MaxInputBytes {
		return &ResourceLimitError{Size: size, Limit: o.MaxInputBytes}
	}
	return nil
}

func convert(text string, o Options) ([]Block, error) {
	if err := checkSize(len(text), o); err != nil {
		return nil, err
	}
	doc, err := markdown.ParseString(text)
	if err != nil {
		return nil, &InternalConsistencyError{Stage: "parse", Err: err}
	}
	blocks := Map(doc, o)
	o.logger().Debug().
		Int("bytes", len(text)).
		Int("nodes", len(doc.Nodes)).
		Int("blocks", len(blocks)).
		Msg("converted markdown")
	return blocks, nil
}
