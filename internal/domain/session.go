package domain

import "time"

// Session is the single authenticated agent of the process.
type Session struct {
	Agent     Agent     `json:"agent"`
	StartedAt time.Time `json:"started_at"`
}
