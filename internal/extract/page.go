package extract

// Page is the structured result of parsing one fetched HTML page.
// Node order matches document order, which the structurer relies on.
type Page struct {
	URL        string
	Title      string
	Text       string // flattened content text, space-joined
	Nodes      []Node
	CodeBlocks []string
	Lists      [][]string
	Tables     []Table
	Meta       map[string]string
	Links      []Link
}

// Node is a heading or content-bearing element in document order.
type Node struct {
	Tag      string
	Level    int // 1..6 for headings, 0 for content nodes
	Text     string
	AnchorID string
}

// IsHeading reports whether the node is an h1..h6 element.
func (n Node) IsHeading() bool {
	return n.Level > 0
}

// Table holds the cell text of a parsed table, one slice per row.
type Table struct {
	Rows [][]string
}

// Link is an anchor with its text and resolved absolute URL.
type Link struct {
	Text string
	URL  string
}
