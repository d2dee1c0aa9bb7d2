// Package scanner drives the scan cycle: discover tiles for the current page
// mode, extract context for the undecided ones, classify the batch against
// the excluded topics, and dispatch show/suppress/delete decisions.
package scanner
