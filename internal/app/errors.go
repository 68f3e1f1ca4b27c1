package service

import "errors"

// Sentinel errors returned by Service methods. Callers match them with errors.Is.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNotStopped       = errors.New("session not stopped")
	ErrAlreadyCommitted = errors.New("session already committed")
	ErrBackpressure     = errors.New("commit queue full")
	ErrTooManySessions  = errors.New("too many sessions")
	ErrInvalidPlayer    = errors.New("invalid player")
)
