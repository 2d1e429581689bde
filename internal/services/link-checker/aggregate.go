package link_checker

import (
	"math"
	"sort"
	"time"

	"github.com/NordCoder/Linkerus/internal/domain/outcome"
	"github.com/NordCoder/Linkerus/internal/domain/snapshot"
	"github.com/NordCoder/Linkerus/internal/domain/target"
)

type AggregateInput struct {
	Previous       *snapshot.RunSnapshot
	Outcomes       []outcome.Outcome
	Targets        []target.CheckTarget
	Now            time.Time
	SpikeThreshold int
}

// Aggregate builds the next snapshot. Only totalRuns and trends are carried
// over from the previous one; everything else is recomputed.
func Aggregate(in AggregateInput) snapshot.RunSnapshot {
	total := len(in.Targets)
	broken := len(in.Outcomes)

	snap := snapshot.RunSnapshot{
		LastUpdated:       in.Now,
		TotalURLs:         total,
		BrokenLinks:       broken,
		SuccessRate:       SuccessRate(total, broken),
		BrokenLinksList:   sortedOutcomes(in.Outcomes),
		Locales:           localeStats(in.Targets, in.Outcomes),
		ErrorDistribution: errorDistribution(in.Outcomes),
	}
	snap.ResponseTimeDistribution = latencyBuckets(in.Outcomes)

	var history []snapshot.Trend
	if in.Previous != nil {
		snap.TotalRuns = in.Previous.TotalRuns
		history = append(history, in.Previous.Trends...)
	}
	snap.TotalRuns++

	if in.SpikeThreshold > 0 {
		history = DropSpikes(history, in.SpikeThreshold)
	}
	history = append(history, snapshot.Trend{
		Date:              in.Now,
		BrokenLinks:       broken,
		TotalURLs:         total,
		ErrorDistribution: copyCounts(snap.ErrorDistribution),
	})
	if len(history) > snapshot.MaxTrends {
		history = history[len(history)-snapshot.MaxTrends:]
	}
	snap.Trends = history
	return snap
}

// SuccessRate is the healthy share in percent, unrounded.
func SuccessRate(total, broken int) float64 {
	if total <= 0 {
		return 100
	}
	if broken < 0 {
		broken = 0
	}
	if broken > total {
		broken = total
	}
	return float64(total-broken) / float64(total) * 100
}

// DropSpikes removes trend entries whose broken count reached threshold.
// Such entries come from passes where the site itself was unreachable.
func DropSpikes(trends []snapshot.Trend, threshold int) []snapshot.Trend {
	out := make([]snapshot.Trend, 0, len(trends))
	for _, t := range trends {
		if t.BrokenLinks >= threshold {
			continue
		}
		out = append(out, t)
	}
	return out
}

func localeStats(targets []target.CheckTarget, outcomes []outcome.Outcome) []snapshot.LocaleStats {
	totals := map[string]int{}
	for _, t := range targets {
		totals[t.Locale]++
	}
	brokenBy := map[string]int{}
	for _, o := range outcomes {
		brokenBy[o.Locale]++
	}

	out := make([]snapshot.LocaleStats, 0, len(totals))
	for name, n := range totals {
		out = append(out, snapshot.LocaleStats{
			Name:        name,
			Total:       n,
			Broken:      brokenBy[name],
			SuccessRate: SuccessRate(n, brokenBy[name]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func errorDistribution(outcomes []outcome.Outcome) map[string]int {
	out := make(map[string]int)
	for _, o := range outcomes {
		out[o.StatusCode.String()]++
	}
	return out
}

// latencyBuckets counts outcomes with a usable latency into the four
// fixed ranges.
func latencyBuckets(outcomes []outcome.Outcome) snapshot.ResponseTimeDistribution {
	var d snapshot.ResponseTimeDistribution
	for _, o := range outcomes {
		ms := o.Latency
		switch {
		case math.IsNaN(ms) || ms < 0:
			continue
		case ms < 1000:
			d.Under1s++
		case ms < 3000:
			d.From1To3s++
		case ms < 5000:
			d.From3To5s++
		default:
			d.Over5s++
		}
	}
	return d
}

func sortedOutcomes(in []outcome.Outcome) []outcome.Outcome {
	out := make([]outcome.Outcome, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Locale != out[j].Locale {
			return out[i].Locale < out[j].Locale
		}
		return out[i].URL < out[j].URL
	})
	return out
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
