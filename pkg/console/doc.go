// Package console renders run events for people: a pterm progress bar and
// per-file lines on a terminal.
package console
