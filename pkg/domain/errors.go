package domain

import "errors"

// ErrDuplicateCommand is returned when two registry entries normalize to the same name.
var ErrDuplicateCommand = errors.New("duplicate command")

// ErrUnknownCommand is returned when a token does not resolve to a registered command.
var ErrUnknownCommand = errors.New("unknown command")

// ErrValidation marks an argument rejected by a command handler.
var ErrValidation = errors.New("invalid argument")

// ErrIllegalTransition is returned when a mode change is not allowed from the current mode.
var ErrIllegalTransition = errors.New("illegal mode transition")

// ErrInstanceLocked is returned when another process already holds the single-instance lock.
var ErrInstanceLocked = errors.New("instance already running")

// ErrTransport is returned when a listener fails to bind or start.
var ErrTransport = errors.New("transport error")
