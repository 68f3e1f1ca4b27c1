package model

import "time"

// SessionCommit carries one analysed session to the rating writer.
// SessionID is the idempotency key: a session is committed at most once.
type SessionCommit struct {
	SessionID string
	Date      time.Time
	Speeds    []PlayerSpeed
}

// PlayerSpeed is a participant's average speed in a session.
type PlayerSpeed struct {
	PlayerID    string
	AvgSpeedMps float64
}
