// Package apply executes tile decisions against the host document. Every
// operation is idempotent and safe on tiles the host has already detached:
// the core never owns tile lifecycle, it only patches presentation.
package apply

import (
	"golang.org/x/net/html"

	"winnow/internal/page"
)

const (
	// SuppressClass marks a visually suppressed tile.
	SuppressClass = "winnow-suppressed"
	// DeleteClass marks a tile removed from layout.
	DeleteClass = "winnow-deleted"
	// IndicatorClass marks the overlay explaining why a tile is hidden.
	IndicatorClass = "winnow-indicator"

	// savedStyleAttr preserves the host's own inline style so Show can
	// restore the tile exactly.
	savedStyleAttr = "data-winnow-style"

	suppressStyle  = "opacity:0.15;pointer-events:none"
	deleteStyle    = "display:none"
	indicatorStyle = "position:absolute;top:4px;right:4px;pointer-events:none"
)

// Show clears any suppression or deletion applied earlier. It is a no-op on
// tiles that are already shown or detached.
func Show(tile *page.Tile) {
	node := tile.Node()
	if node == nil {
		return
	}
	if !page.HasClass(node, SuppressClass) && !page.HasClass(node, DeleteClass) {
		return
	}
	page.RemoveClass(node, SuppressClass)
	page.RemoveClass(node, DeleteClass)
	restoreStyle(node)
	removeIndicator(node)
}

// Suppress keeps the tile in layout but fades it out, disables interaction,
// and overlays a small "Hidden" indicator. Calling it twice is a no-op.
func Suppress(tile *page.Tile) {
	node := tile.Node()
	if node == nil {
		return
	}
	if page.HasClass(node, SuppressClass) {
		return
	}
	// A previously deleted tile can move straight to suppressed.
	overrideStyle(node, suppressStyle)
	page.RemoveClass(node, DeleteClass)
	page.AddClass(node, SuppressClass)
	if findIndicator(node) == nil {
		node.AppendChild(newIndicator())
	}
}

// Delete removes the tile from layout. The node stays in the tree so the
// host page's own bookkeeping never sees a detached child; display:none is
// fully reversible via Show.
func Delete(tile *page.Tile) {
	node := tile.Node()
	if node == nil {
		return
	}
	if page.HasClass(node, DeleteClass) {
		return
	}
	overrideStyle(node, deleteStyle)
	page.RemoveClass(node, SuppressClass)
	removeIndicator(node)
	page.AddClass(node, DeleteClass)
}

// overrideStyle swaps in our presentation style, stashing the host's inline
// style (if any) the first time so it survives a later Show. It must run
// while the marker classes still reflect the previous state: a tile already
// overridden carries our style, not the host's, and must not be re-stashed.
func overrideStyle(node *html.Node, style string) {
	overridden := page.HasClass(node, SuppressClass) || page.HasClass(node, DeleteClass)
	if !overridden {
		if _, saved := page.Attr(node, savedStyleAttr); !saved {
			if original, ok := page.Attr(node, "style"); ok {
				page.SetAttr(node, savedStyleAttr, original)
			}
		}
	}
	page.SetAttr(node, "style", style)
}

func restoreStyle(node *html.Node) {
	if original, ok := page.Attr(node, savedStyleAttr); ok {
		page.SetAttr(node, "style", original)
		page.RemoveAttr(node, savedStyleAttr)
		return
	}
	page.RemoveAttr(node, "style")
}

func newIndicator() *html.Node {
	indicator := &html.Node{
		Type: html.ElementNode,
		Data: "div",
		Attr: []html.Attribute{
			{Key: "class", Val: IndicatorClass},
			{Key: "style", Val: indicatorStyle},
		},
	}
	indicator.AppendChild(&html.Node{Type: html.TextNode, Data: "Hidden"})
	return indicator
}

func findIndicator(node *html.Node) *html.Node {
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && page.HasClass(c, IndicatorClass) {
			return c
		}
	}
	return nil
}

func removeIndicator(node *html.Node) {
	if indicator := findIndicator(node); indicator != nil {
		node.RemoveChild(indicator)
	}
}
