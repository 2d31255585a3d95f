// Package parser turns a document engine's structural markup export into
// row and cell records.
package parser

import (
	"encoding/xml"
	"io"
	"strings"
)

// node is a minimal element tree built from the filtered markup.
type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	text     strings.Builder
	parent   *node
}

// attr returns the value of the named attribute, matched case-insensitively.
func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) is(name string) bool {
	return strings.EqualFold(n.name, name)
}

// childrenNamed returns the direct children with the given element name.
func (n *node) childrenNamed(name string) []*node {
	var result []*node
	for _, c := range n.children {
		if c.is(name) {
			result = append(result, c)
		}
	}
	return result
}

// collect appends, in document order, every descendant named name without
// descending into matches.
func (n *node) collect(name string, out []*node) []*node {
	for _, c := range n.children {
		if c.is(name) {
			out = append(out, c)
			continue
		}
		out = c.collect(name, out)
	}
	return out
}

// textContent returns the concatenated character data of n and its descendants.
func (n *node) textContent() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *node) writeText(sb *strings.Builder) {
	sb.WriteString(n.text.String())
	for _, c := range n.children {
		c.writeText(sb)
	}
}

// parseTree parses well-formed markup into a node tree rooted at a
// synthetic document node.
func parseTree(r io.Reader) (*node, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true

	root := &node{}
	current := root
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			child := &node{
				name:   t.Name.Local,
				attrs:  t.Attr,
				parent: current,
			}
			current.children = append(current.children, child)
			current = child
		case xml.EndElement:
			if current.parent != nil {
				current = current.parent
			}
		case xml.CharData:
			current.text.Write(t)
		}
	}
	return root, nil
}
