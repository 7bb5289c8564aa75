package mdblocks

import (
	"maps"

	"github.com/kk-code-lab/mdblocks/markdown"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxHeadingLevel   = 3
	DefaultCodeBlockLanguage = "plain text"
	DefaultMaxInputBytes     = 4 << 20
	DefaultMaxRichTextLength = 2000

	maxSupportedHeadingLevel = 3
)

// NodeConverter maps one document node to blocks. Returning false hands the
// node back to the built-in mapping.
type NodeConverter func(doc *markdown.Document, id markdown.NodeID) ([]Block, bool)

// Options are the pure parameters of a conversion.
type Options struct {
	// MaxHeadingLevel clamps deeper headings; values outside 1..3 are clamped.
	MaxHeadingLevel int
	// PreserveEmptyParagraphs keeps paragraphs whose resolved text is blank.
	PreserveEmptyParagraphs bool
	// CodeBlockDefaultLanguage is used when a fence has no language tag.
	CodeBlockDefaultLanguage string
	// MaxInputBytes rejects larger inputs; 0 disables the limit.
	MaxInputBytes int
	// MaxRichTextLength splits longer rich text runs; 0 disables splitting.
	MaxRichTextLength int
	// NormalizeLanguages maps fence tags onto known code languages.
	NormalizeLanguages bool
	// Overrides replace the built-in mapping per node kind.
	Overrides map[markdown.NodeKind]NodeConverter
	// Logger receives debug events; nil disables logging.
	Logger *zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxHeadingLevel:          DefaultMaxHeadingLevel,
		CodeBlockDefaultLanguage: DefaultCodeBlockLanguage,
		MaxInputBytes:            DefaultMaxInputBytes,
		MaxRichTextLength:        DefaultMaxRichTextLength,
	}
}

func WithMaxHeadingLevel(level int) Option {
	return func(o *Options) { o.MaxHeadingLevel = level }
}

func WithPreserveEmptyParagraphs(preserve bool) Option {
	return func(o *Options) { o.PreserveEmptyParagraphs = preserve }
}

func WithCodeBlockDefaultLanguage(lang string) Option {
	return func(o *Options) { o.CodeBlockDefaultLanguage = lang }
}

func WithMaxInputBytes(limit int) Option {
	return func(o *Options) { o.MaxInputBytes = limit }
}

func WithMaxRichTextLength(limit int) Option {
	return func(o *Options) { o.MaxRichTextLength = limit }
}

func WithNormalizedLanguages(normalize bool) Option {
	return func(o *Options) { o.NormalizeLanguages = normalize }
}

// WithOverride registers conv for kind. The override map is copied so option
// values can be shared between goroutines.
func WithOverride(kind markdown.NodeKind, conv NodeConverter) Option {
	return func(o *Options) {
		overrides := make(map[markdown.NodeKind]NodeConverter, len(o.Overrides)+1)
		maps.Copy(overrides, o.Overrides)
		overrides[kind] = conv
		o.Overrides = overrides
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = &logger }
}

// WithOptions replaces all options at once, e.g. with values loaded from a
// config file.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

// normalized fills zero values and clamps out-of-range settings.
func (o Options) normalized() Options {
	switch {
	case o.MaxHeadingLevel <= 0:
		o.MaxHeadingLevel = DefaultMaxHeadingLevel
	case o.MaxHeadingLevel > maxSupportedHeadingLevel:
		o.MaxHeadingLevel = maxSupportedHeadingLevel
	}
	if o.CodeBlockDefaultLanguage == "" {
		o.CodeBlockDefaultLanguage = DefaultCodeBlockLanguage
	}
	if o.MaxInputBytes < 0 {
		o.MaxInputBytes = 0
	}
	if o.MaxRichTextLength < 0 {
		o.MaxRichTextLength = 0
	}
	return o
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
