package mdblocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Wire types follow the Notion API block object layout.

type richTextWire struct {
	Type        string          `json:"type" yaml:"type"`
	Text        textContentWire `json:"text" yaml:"text"`
	Annotations annotationsWire `json:"annotations" yaml:"annotations"`
}

type textContentWire struct {
	Content string    `json:"content" yaml:"content"`
	Link    *linkWire `json:"link,omitempty" yaml:"link,omitempty"`
}

type linkWire struct {
	URL string `json:"url" yaml:"url"`
}

type annotationsWire struct {
	Bold          bool   `json:"bold" yaml:"bold"`
	Italic        bool   `json:"italic" yaml:"italic"`
	Strikethrough bool   `json:"strikethrough" yaml:"strikethrough"`
	Underline     bool   `json:"underline" yaml:"underline"`
	Code          bool   `json:"code" yaml:"code"`
	Color         string `json:"color" yaml:"color"`
}

type textBody struct {
	RichText []richTextWire `json:"rich_text" yaml:"rich_text"`
	Children []Block        `json:"children,omitempty" yaml:"children,omitempty"`
}

type codeBody struct {
	RichText []richTextWire `json:"rich_text" yaml:"rich_text"`
	Language string         `json:"language" yaml:"language"`
}

type tableBody struct {
	TableWidth      int  `json:"table_width" yaml:"table_width"`
	HasColumnHeader bool `json:"has_column_header" yaml:"has_column_header"`
	// Markdown tables have no row headers; the field is always false.
	HasRowHeader bool    `json:"has_row_header" yaml:"has_row_header"`
	Children     []Block `json:"children" yaml:"children"`
}

type tableRowBody struct {
	Cells [][]richTextWire `json:"cells" yaml:"cells"`
}

type imageBody struct {
	Type     string         `json:"type" yaml:"type"`
	External linkWire       `json:"external" yaml:"external"`
	Caption  []richTextWire `json:"caption,omitempty" yaml:"caption,omitempty"`
}

type emptyBody struct{}

func toWire(runs []RichText) []richTextWire {
	out := make([]richTextWire, 0, len(runs))
	for _, r := range runs {
		w := richTextWire{
			Type: "text",
			Text: textContentWire{Content: r.Text},
			Annotations: annotationsWire{
				Bold:          r.Bold,
				Italic:        r.Italic,
				Strikethrough: r.Strikethrough,
				Code:          r.Code,
				Color:         "default",
			},
		}
		if r.Link != "" {
			w.Text.Link = &linkWire{URL: r.Link}
		}
		out = append(out, w)
	}
	return out
}

func (b Block) body() any {
	switch b.Type {
	case BlockCode:
		return codeBody{RichText: toWire(b.RichText), Language: b.Language}
	case BlockTable:
		children := b.Children
		if children == nil {
			children = []Block{}
		}
		return tableBody{
			TableWidth:      b.TableWidth,
			HasColumnHeader: b.HasColumnHeader,
			Children:        children,
		}
	case BlockTableRow:
		cells := make([][]richTextWire, len(b.Cells))
		for i, cell := range b.Cells {
			cells[i] = toWire(cell)
		}
		return tableRowBody{Cells: cells}
	case BlockImage:
		img := imageBody{Type: "external", External: linkWire{URL: b.URL}}
		if len(b.RichText) > 0 {
			img.Caption = toWire(b.RichText)
		}
		return img
	case BlockDivider:
		return emptyBody{}
	default:
		return textBody{RichText: toWire(b.RichText), Children: b.Children}
	}
}

// MarshalJSON encodes the block as a Notion API block object.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Type == "" {
		return nil, fmt.Errorf("mdblocks: block without type")
	}
	body, err := marshalJSON(b.body())
	if err != nil {
		return nil, err
	}
	typ, err := marshalJSON(string(b.Type))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"object":"block","type":`)
	buf.Write(typ)
	buf.WriteByte(',')
	buf.Write(typ)
	buf.WriteByte(':')
	buf.Write(body)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSON is json.Marshal without HTML escaping, so links and code keep
// their `<`, `>` and `&` characters.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalYAML encodes the same structure as MarshalJSON.
func (b Block) MarshalYAML() (any, error) {
	if b.Type == "" {
		return nil, fmt.Errorf("mdblocks: block without type")
	}
	var body yaml.Node
	if err := body.Encode(b.body()); err != nil {
		return nil, err
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			yamlString("object"), yamlString("block"),
			yamlString("type"), yamlString(string(b.Type)),
			yamlString(string(b.Type)), &body,
		},
	}, nil
}

func yamlString(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// EncodeJSON writes blocks as a JSON array. An empty indent writes compact
// output.
func EncodeJSON(w io.Writer, blocks []Block, indent string) error {
	if blocks == nil {
		blocks = []Block{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(blocks)
}

// EncodeYAML writes blocks as a YAML sequence.
func EncodeYAML(w io.Writer, blocks []Block) error {
	if blocks == nil {
		blocks = []Block{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(blocks); err != nil {
		return err
	}
	return enc.Close()
}
