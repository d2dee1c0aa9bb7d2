package page

// SignalKind classifies a host-document event the pipeline reacts to.
type SignalKind int

const (
	// SignalMutation reports insertions into the tile container.
	SignalMutation SignalKind = iota
	// SignalNavigation reports a single-page-app route change.
	SignalNavigation
)

// Signal is one observed host-document event.
type Signal struct {
	Kind SignalKind
	// URL carries the destination for navigation signals.
	URL string
}
