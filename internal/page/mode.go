package page

import (
	"net/url"
	"strings"
)

// Mode identifies which surface of the host feed a document shows.
type Mode string

const (
	// ModeHome is the default recommendation grid.
	ModeHome Mode = "home"
	// ModeSearch is a search results listing.
	ModeSearch Mode = "search"
	// ModeWatch is the sidebar of recommendations next to a playing video.
	ModeWatch Mode = "watch"
)

// ResolveMode maps a page URL onto the surface it renders. Unparseable or
// unrecognized URLs fall back to the home feed.
func ResolveMode(rawURL string) Mode {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ModeHome
	}
	path := parsed.Path
	switch {
	case strings.HasPrefix(path, "/results"):
		return ModeSearch
	case strings.HasPrefix(path, "/watch"):
		return ModeWatch
	default:
		return ModeHome
	}
}

// TileTags returns the element names that count as recommendation tiles for
// a page mode. The table mirrors the host page's renderer elements and must
// stay in sync with it.
func TileTags(mode Mode) []string {
	switch mode {
	case ModeSearch:
		return []string{"ytd-video-renderer"}
	case ModeWatch:
		return []string{"ytd-compact-video-renderer", "yt-lockup-view-model"}
	default:
		return []string{"ytd-rich-item-renderer"}
	}
}
