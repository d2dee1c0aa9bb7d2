// Package page models the host feed document the pipeline reads and patches.
//
// The document is an externally produced HTML tree: the host owns tile
// lifecycle, winnow only discovers recommendation tiles, tags them with a
// stable synthetic identity, and patches presentation attributes. Page modes
// (home, search, watch) select which tile elements count as recommendations.
package page
