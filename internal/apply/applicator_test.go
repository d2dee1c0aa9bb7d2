package apply_test

import (
	"testing"

	"golang.org/x/net/html"

	"winnow/internal/apply"
	"winnow/internal/page"
)

func tileFrom(t *testing.T, tileMarkup string) *page.Tile {
	t.Helper()
	doc, err := page.Parse("https://www.youtube.com/",
		`<html><body>`+tileMarkup+`</body></html>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tiles := doc.Tiles()
	if len(tiles) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(tiles))
	}
	return tiles[0]
}

func countIndicators(node *html.Node) int {
	count := 0
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && page.HasClass(c, apply.IndicatorClass) {
			count++
		}
	}
	return count
}

func TestSuppressThenShowRestoresExactState(t *testing.T) {
	tile := tileFrom(t, `<ytd-rich-item-renderer style="margin:4px"><a id="video-title">X</a></ytd-rich-item-renderer>`)
	node := tile.Node()

	apply.Suppress(tile)
	if !page.HasClass(node, apply.SuppressClass) {
		t.Fatal("missing suppress class")
	}
	if style, _ := page.Attr(node, "style"); style != "opacity:0.15;pointer-events:none" {
		t.Fatalf("unexpected suppressed style: %q", style)
	}
	if countIndicators(node) != 1 {
		t.Fatal("missing indicator")
	}

	apply.Show(tile)
	if page.HasClass(node, apply.SuppressClass) {
		t.Fatal("suppress class leaked")
	}
	if style, _ := page.Attr(node, "style"); style != "margin:4px" {
		t.Fatalf("host style not restored: %q", style)
	}
	if countIndicators(node) != 0 {
		t.Fatal("indicator leaked")
	}
	if _, ok := page.Attr(node, "data-winnow-style"); ok {
		t.Fatal("saved-style attribute leaked")
	}
}

func TestSuppressIsIdempotent(t *testing.T) {
	tile := tileFrom(t, `<ytd-rich-item-renderer><a id="video-title">X</a></ytd-rich-item-renderer>`)

	apply.Suppress(tile)
	apply.Suppress(tile)
	apply.Suppress(tile)

	if countIndicators(tile.Node()) != 1 {
		t.Fatalf("expected exactly 1 indicator, got %d", countIndicators(tile.Node()))
	}
}

func TestShowOnUntouchedTileIsNoOp(t *testing.T) {
	tile := tileFrom(t, `<ytd-rich-item-renderer style="margin:4px"></ytd-rich-item-renderer>`)

	apply.Show(tile)

	if style, _ := page.Attr(tile.Node(), "style"); style != "margin:4px" {
		t.Fatalf("no-op Show changed style: %q", style)
	}
}

func TestDeleteHidesWithoutDetaching(t *testing.T) {
	tile := tileFrom(t, `<ytd-rich-item-renderer></ytd-rich-item-renderer>`)

	apply.Delete(tile)

	if !tile.Attached() {
		t.Fatal("delete must not detach the node")
	}
	if style, _ := page.Attr(tile.Node(), "style"); style != "display:none" {
		t.Fatalf("unexpected deleted style: %q", style)
	}
	if !page.HasClass(tile.Node(), apply.DeleteClass) {
		t.Fatal("missing delete class")
	}

	apply.Show(tile)
	if page.HasClass(tile.Node(), apply.DeleteClass) {
		t.Fatal("delete class leaked after Show")
	}
	if _, ok := page.Attr(tile.Node(), "style"); ok {
		t.Fatal("style attribute should be gone after Show")
	}
}

func TestSuppressAfterDeleteSwitchesCleanly(t *testing.T) {
	tile := tileFrom(t, `<ytd-rich-item-renderer></ytd-rich-item-renderer>`)

	apply.Delete(tile)
	apply.Suppress(tile)

	node := tile.Node()
	if page.HasClass(node, apply.DeleteClass) {
		t.Fatal("delete class leaked into suppression")
	}
	if style, _ := page.Attr(node, "style"); style != "opacity:0.15;pointer-events:none" {
		t.Fatalf("unexpected style: %q", style)
	}
	if countIndicators(node) != 1 {
		t.Fatal("missing indicator")
	}

	// The delete-time style must not have been stashed as the host's own.
	apply.Show(tile)
	if style, ok := page.Attr(node, "style"); ok {
		t.Fatalf("style %q leaked after Show", style)
	}
}

func TestOperationsSafeOnDetachedTile(t *testing.T) {
	tile := tileFrom(t, `<ytd-rich-item-renderer></ytd-rich-item-renderer>`)
	tile.Detach()

	// Must not panic on a dangling reference.
	apply.Suppress(tile)
	apply.Show(tile)
	apply.Delete(tile)

	var nilTile *page.Tile
	apply.Suppress(nilTile)
	apply.Show(nilTile)
	apply.Delete(nilTile)
}
