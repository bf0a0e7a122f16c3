package webpage

import (
	"strings"

	"golang.org/x/net/html"
)

// matcher reports whether a node should be selected.
type matcher func(*html.Node) bool

// matchSelector supports the three selector forms used in config:
// ".class", "#id" and a bare tag name.
func matchSelector(sel string) matcher {
	switch {
	case strings.HasPrefix(sel, "."):
		return matchClass(sel[1:])
	case strings.HasPrefix(sel, "#"):
		return matchID(sel[1:])
	default:
		return matchTag(sel)
	}
}

func matchTag(tag string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func matchAnyTag(tags ...string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, tag := range tags {
			if n.Data == tag {
				return true
			}
		}
		return false
	}
}

func matchID(id string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	}
}

func matchClass(class string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// walk visits n and its descendants in document order. Returning false
// from visit skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// findFirst returns the first node matching m in document order.
func findFirst(root *html.Node, m matcher) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if m(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// findAll collects all matching nodes before any mutation, so callers
// can rewrite the tree while iterating.
func findAll(root *html.Node, m matcher) []*html.Node {
	var found []*html.Node
	walk(root, func(n *html.Node) bool {
		if m(n) {
			found = append(found, n)
			// Matches nested inside a match belong to the outer one.
			return false
		}
		return true
	})
	return found
}

// replaceWithText swaps a node for a plain text node in place.
func replaceWithText(n *html.Node, text string) {
	if n.Parent == nil {
		return
	}
	n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text}, n)
	n.Parent.RemoveChild(n)
}

// removeAll detaches every node matching m from the tree.
func removeAll(root *html.Node, m matcher) {
	for _, n := range findAll(root, m) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}
