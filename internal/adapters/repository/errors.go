package repository

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidPlayer = errors.New("invalid player")
)
