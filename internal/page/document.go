package page

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// IDAttr is the attribute winnow stamps onto tiles to give them a stable
// identity across scan cycles.
const IDAttr = "data-winnow-id"

// Document wraps one parsed snapshot of the host feed page. It is not safe
// for concurrent use; the owning session serializes access.
type Document struct {
	root *html.Node
	url  string
	mode Mode
}

// Tile is a reference to one recommendation unit inside a Document. The host
// owns the node; winnow only associates metadata by identity and patches
// presentation attributes.
type Tile struct {
	node *html.Node
	doc  *Document
}

// Parse builds a Document from a page URL and an HTML snapshot.
func Parse(rawURL, source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{
		root: root,
		url:  strings.TrimSpace(rawURL),
		mode: ResolveMode(rawURL),
	}, nil
}

// URL returns the page URL the snapshot was captured from.
func (d *Document) URL() string { return d.url }

// Mode returns the page mode resolved from the URL.
func (d *Document) Mode() Mode { return d.mode }

// SetURL records a navigation. The mode is re-resolved from the new URL.
func (d *Document) SetURL(rawURL string) {
	d.url = strings.TrimSpace(rawURL)
	d.mode = ResolveMode(rawURL)
}

// Tiles discovers the recommendation tiles for the current page mode, in
// document order. Tiles seen for the first time are stamped with a fresh
// identity attribute.
func (d *Document) Tiles() []*Tile {
	tags := make(map[string]struct{})
	for _, tag := range TileTags(d.mode) {
		tags[tag] = struct{}{}
	}

	nodes := FindAll(d.root, func(n *html.Node) bool {
		_, ok := tags[n.Data]
		return ok
	})

	tiles := make([]*Tile, 0, len(nodes))
	for _, node := range nodes {
		if id, ok := Attr(node, IDAttr); !ok || strings.TrimSpace(id) == "" {
			SetAttr(node, IDAttr, uuid.NewString())
		}
		tiles = append(tiles, &Tile{node: node, doc: d})
	}
	return tiles
}

// TileByID finds an already-stamped tile. Returns nil when the host has
// removed it.
func (d *Document) TileByID(id string) *Tile {
	node := FindFirst(d.root, func(n *html.Node) bool {
		value, ok := Attr(n, IDAttr)
		return ok && value == id
	})
	if node == nil {
		return nil
	}
	return &Tile{node: node, doc: d}
}

// Render serializes the current (patched) tree back to HTML.
func (d *Document) Render() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return sb.String(), nil
}

// ID returns the tile's synthetic identity, or "" for a nil tile.
func (t *Tile) ID() string {
	if t == nil || t.node == nil {
		return ""
	}
	id, _ := Attr(t.node, IDAttr)
	return id
}

// Node exposes the underlying element for read-mostly helpers.
func (t *Tile) Node() *html.Node {
	if t == nil {
		return nil
	}
	return t.node
}

// Attached reports whether the tile is still reachable from its document
// root. The host can detach tiles at any time.
func (t *Tile) Attached() bool {
	if t == nil || t.node == nil || t.doc == nil {
		return false
	}
	for n := t.node; n != nil; n = n.Parent {
		if n == t.doc.root {
			return true
		}
	}
	return false
}

// Detach removes the tile node from the tree. Used in tests to simulate the
// host dropping a tile mid-flight.
func (t *Tile) Detach() {
	if t == nil || t.node == nil || t.node.Parent == nil {
		return
	}
	t.node.Parent.RemoveChild(t.node)
}
