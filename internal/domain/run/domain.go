package run

import (
	"time"

	"github.com/NordCoder/Linkerus/internal/domain/outcome"
)

// Run is one finished check pass as kept in the archive.
type Run struct {
	ID          string            `json:"id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	TotalURLs   int               `json:"total_urls"`
	BrokenLinks int               `json:"broken_links"`
	SuccessRate float64           `json:"success_rate"`
	TotalRuns   int               `json:"total_runs"`
	Outcomes    []outcome.Outcome `json:"outcomes"`
}
