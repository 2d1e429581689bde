package events

import "time"

type RunCompleted struct {
	RunID             string
	LastUpdated       time.Time
	TotalURLs         int
	BrokenLinks       int
	SuccessRate       float64
	TotalRuns         int
	ErrorDistribution map[string]int
}

// RunRequest asks a serving checker to start a pass.
type RunRequest struct {
	Reason      string
	RequestedAt time.Time
}
