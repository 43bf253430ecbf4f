package panapi

import (
	"encoding/xml"
	"strings"
)

// node is a generic XML element used to walk manager responses by path
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []*node    `xml:",any"`
}

// attr returns the value of an attribute by local name
func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// text returns the element's own character data, trimmed
func (n *node) text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content)
}

// find returns the first element matching a slash-separated child path
// (e.g., "result/job/status"), or nil
func (n *node) find(path string) *node {
	all := n.findAll(path)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// findAll returns every element matching a slash-separated child path, in
// document order
func (n *node) findAll(path string) []*node {
	if n == nil {
		return nil
	}

	current := []*node{n}
	for _, step := range strings.Split(strings.Trim(path, "/"), "/") {
		var next []*node
		for _, c := range current {
			for _, child := range c.Nodes {
				if child.XMLName.Local == step {
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// descendant returns the first descendant (depth-first, document order)
// with the given local name, excluding n itself
func (n *node) descendant(name string) *node {
	if n == nil {
		return nil
	}
	for _, child := range n.Nodes {
		if child.XMLName.Local == name {
			return child
		}
		if found := child.descendant(name); found != nil {
			return found
		}
	}
	return nil
}
