// winnow is the command line interface for the winnow filtering daemon:
// topic management, configuration utilities, one-shot document filtering,
// and daemon status.
package main
