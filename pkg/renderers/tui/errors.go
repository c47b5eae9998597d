package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or chose
	// Cancel on the navigation bar.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSession is returned when Run is called without a session.
	ErrNoSession = errors.New("tui: session is required")
)
