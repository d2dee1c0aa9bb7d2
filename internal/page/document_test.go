package page

import (
	"strings"
	"testing"
)

const homeSnapshot = `<!DOCTYPE html>
<html><body>
<div id="contents">
  <ytd-rich-item-renderer><a id="video-title">First video</a></ytd-rich-item-renderer>
  <ytd-rich-item-renderer><a id="video-title">Second video</a></ytd-rich-item-renderer>
  <ytd-video-renderer><a id="video-title">Search-only tile</a></ytd-video-renderer>
</div>
</body></html>`

func TestTilesDiscoveryRespectsMode(t *testing.T) {
	doc, err := Parse("https://www.youtube.com/", homeSnapshot)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tiles := doc.Tiles()
	if len(tiles) != 2 {
		t.Fatalf("home mode found %d tiles, want 2", len(tiles))
	}

	doc.SetURL("https://www.youtube.com/results?search_query=x")
	tiles = doc.Tiles()
	if len(tiles) != 1 {
		t.Fatalf("search mode found %d tiles, want 1", len(tiles))
	}
}

func TestTilesGetStableIdentity(t *testing.T) {
	doc, err := Parse("https://www.youtube.com/", homeSnapshot)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	first := doc.Tiles()
	ids := make(map[string]struct{}, len(first))
	for _, tile := range first {
		if tile.ID() == "" {
			t.Fatal("tile missing identity after discovery")
		}
		ids[tile.ID()] = struct{}{}
	}
	if len(ids) != len(first) {
		t.Fatalf("tile identities not unique: %d ids for %d tiles", len(ids), len(first))
	}

	// A second discovery pass must reuse the stamped identities.
	second := doc.Tiles()
	for i, tile := range second {
		if tile.ID() != first[i].ID() {
			t.Fatalf("tile %d identity changed between scans", i)
		}
	}
}

func TestTileByIDAndAttachment(t *testing.T) {
	doc, err := Parse("https://www.youtube.com/", homeSnapshot)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tiles := doc.Tiles()
	target := tiles[0]

	if got := doc.TileByID(target.ID()); got == nil || got.Node() != target.Node() {
		t.Fatal("TileByID did not find the stamped tile")
	}
	if !target.Attached() {
		t.Fatal("tile should be attached")
	}

	target.Detach()
	if target.Attached() {
		t.Fatal("tile should report detached after host removal")
	}
	if doc.TileByID(target.ID()) != nil {
		t.Fatal("detached tile should not be findable")
	}
}

func TestRenderRoundTripsPatches(t *testing.T) {
	doc, err := Parse("https://www.youtube.com/", homeSnapshot)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tile := doc.Tiles()[0]
	AddClass(tile.Node(), "winnow-suppressed")

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "winnow-suppressed") || !strings.Contains(out, IDAttr) {
		t.Fatalf("rendered output missing patches: %s", out)
	}
}
