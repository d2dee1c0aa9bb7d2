// Package extract derives the classification context for a recommendation
// tile: the title plus the channel name, joined into one string.
package extract

import (
	"strings"

	"golang.org/x/net/html"

	"winnow/internal/page"
)

// Context produces the text a tile is classified under. It tries a
// prioritized list of title and channel selectors and degrades gracefully:
// one part alone is still usable, and a tile with neither is skipped this
// cycle (it stays undecided and is retried later). The tile subtree is never
// mutated.
func Context(tile *page.Tile) (string, bool) {
	node := tile.Node()
	if node == nil {
		return "", false
	}

	title := extractTitle(node)
	channel := extractChannel(node)

	switch {
	case title != "" && channel != "":
		return title + " - " + channel, true
	case title != "":
		return title, true
	case channel != "":
		return channel, true
	default:
		return "", false
	}
}

// extractTitle walks the title fallbacks in priority order: the explicit
// video-title element, a heading, any link carrying a title attribute, then
// a generic title class.
func extractTitle(root *html.Node) string {
	if found := firstText(root, func(n *html.Node) bool {
		id, _ := page.Attr(n, "id")
		return id == "video-title"
	}); found != "" {
		return found
	}

	if found := firstText(root, func(n *html.Node) bool {
		switch n.Data {
		case "h1", "h2", "h3":
			return true
		}
		return false
	}); found != "" {
		return found
	}

	if n := page.FindFirst(root, func(n *html.Node) bool {
		if n.Data != "a" {
			return false
		}
		title, ok := page.Attr(n, "title")
		return ok && strings.TrimSpace(title) != ""
	}); n != nil {
		title, _ := page.Attr(n, "title")
		return strings.TrimSpace(title)
	}

	return firstText(root, func(n *html.Node) bool {
		return page.HasClass(n, "title")
	})
}

// extractChannel tries the channel-name element, its class form, the
// channel-name id, then a generic channel class.
func extractChannel(root *html.Node) string {
	if found := firstText(root, func(n *html.Node) bool {
		return n.Data == "ytd-channel-name"
	}); found != "" {
		return found
	}

	if found := firstText(root, func(n *html.Node) bool {
		return page.HasClass(n, "ytd-channel-name")
	}); found != "" {
		return found
	}

	if found := firstText(root, func(n *html.Node) bool {
		id, _ := page.Attr(n, "id")
		return id == "channel-name"
	}); found != "" {
		return found
	}

	return firstText(root, func(n *html.Node) bool {
		return page.HasClass(n, "channel")
	})
}

func firstText(root *html.Node, pred func(*html.Node) bool) string {
	n := page.FindFirst(root, pred)
	if n == nil {
		return ""
	}
	return page.Text(n)
}
