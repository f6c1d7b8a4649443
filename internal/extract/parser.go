package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ParsePage walks raw HTML into a Page. Headings and content leaves are
// collected in document order; script/style/nav chrome is skipped.
func ParsePage(rawHTML []byte, pageURL string) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		URL:  pageURL,
		Meta: make(map[string]string),
	}

	base, _ := url.Parse(pageURL)

	if title := findTitle(doc); title != "" {
		page.Title = title
	}
	collectMeta(doc, page.Meta)

	// Docusaurus keeps the document body inside <main>; prefer it when present.
	root := findElement(doc, "main")
	if root == nil {
		root = findElement(doc, "article")
	}
	if root == nil {
		root = findElement(doc, "body")
	}
	if root == nil {
		root = doc
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				page.Nodes = append(page.Nodes, Node{
					Tag:      n.Data,
					Level:    level,
					Text:     textContent(n),
					AnchorID: attrValue(n, "id"),
				})
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "aside", "noscript":
				return
			case "pre":
				if code := textContent(n); code != "" {
					page.CodeBlocks = append(page.CodeBlocks, code)
				}
				return
			case "table":
				if tbl := parseTable(n); len(tbl.Rows) > 0 {
					page.Tables = append(page.Tables, tbl)
				}
				return
			case "ul", "ol":
				if items := listItems(n); len(items) > 0 {
					page.Lists = append(page.Lists, items)
				}
				// Fall through to recursion so list items become content nodes.
			case "a":
				if href := attrValue(n, "href"); href != "" {
					if abs := resolveURL(base, href); abs != "" {
						page.Links = append(page.Links, Link{Text: textContent(n), URL: abs})
					}
				}
				// Anchor text is picked up by the enclosing content element.
				return
			case "p", "li", "blockquote", "dd", "dt":
				if t := textContent(n); t != "" {
					page.Nodes = append(page.Nodes, Node{Tag: n.Data, Text: t})
				}
				collectLinks(n, base, page)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	page.Text = flattenText(page.Nodes)

	// Fall back to the first h1 when the page has no <title>.
	if page.Title == "" {
		for _, n := range page.Nodes {
			if n.Level == 1 {
				page.Title = n.Text
				break
			}
		}
	}

	return page, nil
}

// flattenText joins heading and content text in document order.
func flattenText(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		if n.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			if n.IsHeading() {
				sb.WriteString("\n\n")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(n.Text)
		if n.IsHeading() {
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

// collectLinks gathers anchors nested inside a content element.
func collectLinks(n *html.Node, base *url.URL, page *Page) {
	if n.Type == html.ElementNode && n.Data == "a" {
		if href := attrValue(n, "href"); href != "" {
			if abs := resolveURL(base, href); abs != "" {
				page.Links = append(page.Links, Link{Text: textContent(n), URL: abs})
			}
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLinks(c, base, page)
	}
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := findElement(c, tag); e != nil {
			return e
		}
	}
	return nil
}

func collectMeta(n *html.Node, meta map[string]string) {
	if n.Type == html.ElementNode && n.Data == "meta" {
		name := attrValue(n, "name")
		if name == "" {
			name = attrValue(n, "property")
		}
		if content := attrValue(n, "content"); name != "" && content != "" {
			meta[name] = content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectMeta(c, meta)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func parseTable(n *html.Node) Table {
	var tbl Table
	var walkRows func(*html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, textContent(c))
				}
			}
			if len(row) > 0 {
				tbl.Rows = append(tbl.Rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(n)
	return tbl
}

func listItems(n *html.Node) []string {
	var items []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			if t := textContent(c); t != "" {
				items = append(items, t)
			}
		}
	}
	return items
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}
