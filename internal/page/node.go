package page

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of the named attribute on n, with a presence flag.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute on n.
func SetAttr(n *html.Node, name, value string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute from n if present.
func RemoveAttr(n *html.Node, name string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether n carries the CSS class.
func HasClass(n *html.Node, class string) bool {
	raw, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, existing := range strings.Fields(raw) {
		if existing == class {
			return true
		}
	}
	return false
}

// AddClass appends a CSS class to n if not already present.
func AddClass(n *html.Node, class string) {
	if n == nil || HasClass(n, class) {
		return
	}
	raw, _ := Attr(n, "class")
	if raw == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", raw+" "+class)
}

// RemoveClass strips a CSS class from n.
func RemoveClass(n *html.Node, class string) {
	raw, ok := Attr(n, "class")
	if !ok {
		return
	}
	fields := strings.Fields(raw)
	kept := fields[:0]
	for _, existing := range fields {
		if existing != class {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Walk visits n and every descendant in document order until fn returns
// false.
func Walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// FindAll collects every element under root matching pred, in document order.
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	Walk(root, func(n *html.Node) bool {
		if pred(n) {
			found = append(found, n)
		}
		return true
	})
	return found
}

// FindFirst returns the first element under root matching pred.
func FindFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Text concatenates the text content of n's subtree, whitespace-collapsed.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
