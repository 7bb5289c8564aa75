package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/mdblocks"
	"github.com/kk-code-lab/mdblocks/internal/config"
	"github.com/kk-code-lab/mdblocks/internal/fs"
	"github.com/kk-code-lab/mdblocks/internal/preview"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const debugEnv = "MDBLOCKS_DEBUG"

const (
	flagMaxHeadingLevel   = "max-heading-level"
	flagPreserveEmpty     = "preserve-empty"
	flagDefaultLanguage   = "default-language"
	flagMaxInputBytes     = "max-input-bytes"
	flagMaxRichTextLength = "max-rich-text-length"
	flagNormalize         = "normalize-languages"
)

// cli holds flag values shared by the commands.
type cli struct {
	configPath string
	verbose    bool

	maxHeadingLevel   int
	preserveEmpty     bool
	defaultLanguage   string
	maxInputBytes     int
	maxRichTextLength int
	normalize         bool

	format string
	indent string
	output string
	plain  bool

	logger zerolog.Logger
}

// fileResult is one entry of multi-file output.
type fileResult struct {
	File   string           `json:"file" yaml:"file"`
	Blocks []mdblocks.Block `json:"blocks" yaml:"blocks"`
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "mdblocks [files...]",
		Short: "Convert Markdown into Notion-style blocks",
		Long: `mdblocks converts Markdown documents into Notion API block objects.

Convert files or stdin:  mdblocks convert README.md
Preview the outline:     mdblocks preview README.md
List code languages:     mdblocks languages

Settings are read from ~/.config/mdblocks/config.yaml (or --config) and
MDBLOCKS_* environment variables; flags win over both.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		PersistentPreRunE: c.initLogging,
		RunE:              c.runConvert,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file path (default ~/.config/mdblocks/config.yaml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging on stderr")
	flags.IntVar(&c.maxHeadingLevel, flagMaxHeadingLevel, mdblocks.DefaultMaxHeadingLevel, "deepest heading level emitted (1-3)")
	flags.BoolVar(&c.preserveEmpty, flagPreserveEmpty, false, "keep paragraphs without visible text")
	flags.StringVar(&c.defaultLanguage, flagDefaultLanguage, mdblocks.DefaultCodeBlockLanguage, "language for code fences without a tag")
	flags.IntVar(&c.maxInputBytes, flagMaxInputBytes, mdblocks.DefaultMaxInputBytes, "reject larger inputs (0 disables)")
	flags.IntVar(&c.maxRichTextLength, flagMaxRichTextLength, mdblocks.DefaultMaxRichTextLength, "split longer rich text runs (0 disables)")
	flags.BoolVar(&c.normalize, flagNormalize, false, "map fence tags onto known code languages")

	c.addOutputFlags(rootCmd)

	convertCmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert Markdown files or stdin to JSON or YAML",
		Long:  "Convert Markdown to blocks. Without files, stdin is read. Several files are converted concurrently and written as {file, blocks} objects in argument order.",
		RunE:  c.runConvert,
	}
	c.addOutputFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)

	previewCmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Browse the converted block outline",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.runPreview,
	}
	previewCmd.Flags().BoolVar(&c.plain, "plain", false, "print the outline instead of opening the viewer")
	rootCmd.AddCommand(previewCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "List supported code block languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, lang := range mdblocks.Languages() {
				if _, err := fmt.Fprintln(out, lang); err != nil {
					return err
				}
			}
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mdblocks %s\n", version)
		},
	})

	return rootCmd
}

func (c *cli) addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&c.indent, "indent", "", "JSON indentation (compact when empty)")
	cmd.Flags().StringVarP(&c.output, "output", "o", "", "write to file instead of stdout")
}

func (c *cli) initLogging(cmd *cobra.Command, args []string) error {
	level := zerolog.InfoLevel
	if c.verbose || os.Getenv(debugEnv) == "1" {
		level = zerolog.DebugLevel
	}
	stderr := cmd.ErrOrStderr()
	writer := zerolog.ConsoleWriter{Out: stderr, NoColor: !isTerminal(stderr)}
	c.logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return nil
}

// options merges defaults, the config file, the environment and explicitly
// set flags, in that order.
func (c *cli) options(cmd *cobra.Command) (mdblocks.Options, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return mdblocks.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed(flagMaxHeadingLevel) {
		cfg.MaxHeadingLevel = c.maxHeadingLevel
	}
	if flags.Changed(flagPreserveEmpty) {
		cfg.PreserveEmptyParagraphs = c.preserveEmpty
	}
	if flags.Changed(flagDefaultLanguage) {
		cfg.CodeBlockDefaultLanguage = c.defaultLanguage
	}
	if flags.Changed(flagMaxInputBytes) {
		cfg.MaxInputBytes = c.maxInputBytes
	}
	if flags.Changed(flagMaxRichTextLength) {
		cfg.MaxRichTextLength = c.maxRichTextLength
	}
	if flags.Changed(flagNormalize) {
		cfg.NormalizeLanguages = c.normalize
	}
	if err := cfg.Validate(); err != nil {
		return mdblocks.Options{}, err
	}

	opts := cfg.Options()
	opts.Logger = &c.logger
	return opts, nil
}

func (c *cli) convertFile(cmd *cobra.Command, path string, opts mdblocks.Options) ([]mdblocks.Block, error) {
	in, err := fs.ReadInput(path, int64(opts.MaxInputBytes), cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	blocks, err := mdblocks.ConvertBytes(in.Content, mdblocks.WithOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	c.logger.Debug().
		Str("file", in.Name).
		Int("bytes", len(in.Content)).
		Int("blocks", len(blocks)).
		Msg("converted file")
	if blocks == nil {
		blocks = []mdblocks.Block{}
	}
	return blocks, nil
}

func (c *cli) runConvert(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(c.format)
	if format != "json" && format != "yaml" && format != "yml" {
		return fmt.Errorf("unknown format %q, must be json or yaml", c.format)
	}
	opts, err := c.options(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{fs.StdinName}
	}

	results := make([]fileResult, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			blocks, err := c.convertFile(cmd, path, opts)
			if err != nil {
				return err
			}
			results[i] = fileResult{File: path, Blocks: blocks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return c.emit(cmd, format, results)
}

// openOutput creates the --output file.
var openOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// emit writes results to stdout or the --output file. A failed close is
// reported, since it can hide a lost write.
func (c *cli) emit(cmd *cobra.Command, format string, results []fileResult) (err error) {
	out := cmd.OutOrStdout()
	if c.output != "" {
		f, openErr := openOutput(c.output)
		if openErr != nil {
			return fmt.Errorf("failed to create output file: %w", openErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", closeErr)
			}
		}()
		out = f
	}

	if len(results) == 1 {
		if format == "json" {
			return mdblocks.EncodeJSON(out, results[0].Blocks, c.indent)
		}
		return mdblocks.EncodeYAML(out, results[0].Blocks)
	}
	return c.writeResults(out, format, results)
}

func (c *cli) writeResults(w io.Writer, format string, results []fileResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if c.indent != "" {
			enc.SetIndent("", c.indent)
		}
		return enc.Encode(results)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return err
	}
	return enc.Close()
}

func (c *cli) runPreview(cmd *cobra.Command, args []string) error {
	opts, err := c.options(cmd)
	if err != nil {
		return err
	}
	path := fs.StdinName
	if len(args) == 1 {
		path = args[0]
	}
	blocks, err := c.convertFile(cmd, path, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.plain || !isTerminal(out) {
		for _, line := range preview.Outline(blocks, terminalWidth(out)) {
			if _, err := fmt.Fprintln(out, line.Text); err != nil {
				return err
			}
		}
		return nil
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	return preview.NewViewer(screen, path, blocks).Run()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth is 0 (no truncation) when w is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
