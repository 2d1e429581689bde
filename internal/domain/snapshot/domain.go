package snapshot

import (
	"encoding/json"
	"time"

	"github.com/NordCoder/Linkerus/internal/domain/outcome"
)

// MaxTrends bounds the carried trend history; oldest entries go first.
const MaxTrends = 200

// RunSnapshot is the persisted result of the latest pass. Field names are read
// by the dashboard, report and issue tooling and must not change.
type RunSnapshot struct {
	LastUpdated              time.Time                `json:"lastUpdated"`
	TotalRuns                int                      `json:"totalRuns"`
	TotalURLs                int                      `json:"totalUrls"`
	BrokenLinks              int                      `json:"brokenLinks"`
	SuccessRate              float64                  `json:"successRate"`
	BrokenLinksList          []outcome.Outcome        `json:"brokenLinksList"`
	Locales                  []LocaleStats            `json:"locales"`
	ErrorDistribution        map[string]int           `json:"errorDistribution"`
	ResponseTimeDistribution ResponseTimeDistribution `json:"responseTimeDistribution"`
	Trends                   []Trend                  `json:"trends"`
}

type LocaleStats struct {
	Name        string  `json:"name"`
	Total       int     `json:"total"`
	Broken      int     `json:"broken"`
	SuccessRate float64 `json:"successRate"`
}

type ResponseTimeDistribution struct {
	Under1s   int `json:"<1s"`
	From1To3s int `json:"1-3s"`
	From3To5s int `json:"3-5s"`
	Over5s    int `json:">5s"`
}

func (d ResponseTimeDistribution) Total() int {
	return d.Under1s + d.From1To3s + d.From3To5s + d.Over5s
}

type Trend struct {
	Date              time.Time      `json:"date"`
	BrokenLinks       int            `json:"brokenLinks"`
	TotalURLs         int            `json:"totalUrls"`
	ErrorDistribution map[string]int `json:"errorDistribution,omitempty"`
}

func (s *RunSnapshot) UnmarshalJSON(b []byte) error {
	type plain RunSnapshot
	aux := struct {
		*plain
		LastUpdated outcome.LooseTime `json:"lastUpdated"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.LastUpdated = time.Time(aux.LastUpdated)
	return nil
}

func (t *Trend) UnmarshalJSON(b []byte) error {
	type plain Trend
	aux := struct {
		*plain
		Date outcome.LooseTime `json:"date"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.Date = time.Time(aux.Date)
	return nil
}
