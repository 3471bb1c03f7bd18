package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoController is returned when a session is built without a form
	// controller.
	ErrNoController = errors.New("tui: controller is required")
)
