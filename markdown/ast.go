package markdown

// NodeID indexes a node in its Document arena.
type NodeID int

// NoNode marks the absence of a node.
const NoNode NodeID = -1

// NodeKind is the closed set of block-level node kinds.
type NodeKind int

const (
	NodeRoot NodeKind = iota
	NodeHeading
	NodeParagraph
	NodeList
	NodeListItem
	NodeBlockquote
	NodeCodeBlock
	NodeTable
	NodeTableRow
	NodeTableCell
	NodeThematicBreak
)

var nodeKindNames = [...]string{
	NodeRoot:          "Root",
	NodeHeading:       "Heading",
	NodeParagraph:     "Paragraph",
	NodeList:          "List",
	NodeListItem:      "ListItem",
	NodeBlockquote:    "Blockquote",
	NodeCodeBlock:     "CodeBlock",
	NodeTable:         "Table",
	NodeTableRow:      "TableRow",
	NodeTableCell:     "TableCell",
	NodeThematicBreak: "ThematicBreak",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "Unknown"
}

// Node is one block-level element. Parents own their children by index; there
// are no back references.
type Node struct {
	Kind NodeKind

	// Level is the heading level, 1-6.
	Level int
	// Ordered and Start describe a List.
	Ordered bool
	Start   int
	// Info is the full fence info string of a CodeBlock; Language is its first word.
	Info     string
	Language string
	// Header marks the first row of a Table.
	Header bool
	// Align is the declared alignment of a TableCell.
	Align Alignment

	// Text is the unresolved source text of Heading, Paragraph, TableCell and
	// the verbatim body of a CodeBlock.
	Text    string
	HasText bool

	Children []NodeID

	// layout state used only while parsing
	markerIndent  int
	contentIndent int
}

// Document is the parsed block tree stored as an arena. Nodes[0] is the root.
type Document struct {
	Nodes []Node
}

// Root returns the root node id.
func (d *Document) Root() NodeID { return 0 }

// Node returns the node with the given id.
func (d *Document) Node(id NodeID) *Node { return &d.Nodes[id] }

// Children returns the child ids of id in document order.
func (d *Document) Children(id NodeID) []NodeID { return d.Nodes[id].Children }

// Walk visits every node depth-first in pre-order. Returning false from fn
// skips the node's children.
func (d *Document) Walk(fn func(id NodeID, depth int) bool) {
	if len(d.Nodes) == 0 {
		return
	}
	d.walk(d.Root(), 0, fn)
}

func (d *Document) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, child := range d.Nodes[id].Children {
		d.walk(child, depth+1, fn)
	}
}

func (d *Document) add(kind NodeKind, parent NodeID) NodeID {
	id := NodeID(len(d.Nodes))
	d.Nodes = append(d.Nodes, Node{Kind: kind})
	if parent != NoNode {
		d.Nodes[parent].Children = append(d.Nodes[parent].Children, id)
	}
	return id
}
