package link_checker

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Linkerus/internal/domain/outcome"
	"github.com/NordCoder/Linkerus/internal/domain/snapshot"
	"github.com/NordCoder/Linkerus/internal/domain/target"
)

var aggNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 100.0, SuccessRate(0, 0))
	assert.Equal(t, 100.0, SuccessRate(10, 0))
	assert.Equal(t, 0.0, SuccessRate(10, 10))
	assert.Equal(t, 66.66666666666666, SuccessRate(3, 1), "not rounded")
	for total := 0; total <= 50; total++ {
		for broken := 0; broken <= total; broken++ {
			r := SuccessRate(total, broken)
			assert.True(t, r >= 0 && r <= 100, "total=%d broken=%d rate=%v", total, broken, r)
		}
	}
}

func TestAggregate_Stats(t *testing.T) {
	targets := []target.CheckTarget{
		{URL: "https://a", Locale: "English"},
		{URL: "https://b", Locale: "English"},
		{URL: "https://c", Locale: "French"},
		{URL: "https://d", Locale: "French"},
		{URL: "https://e", Locale: "German"},
	}
	outcomes := []outcome.Outcome{
		{URL: "https://d", Locale: "French", StatusCode: outcome.HTTPStatus(404), ErrorType: outcome.ClientError, Latency: 250},
		{URL: "https://b", Locale: "English", StatusCode: outcome.TimeoutStatus(), ErrorType: outcome.TimeoutError, Latency: 20000},
		{URL: "https://c", Locale: "French", StatusCode: outcome.HTTPStatus(404), ErrorType: outcome.ClientError, Latency: 1500},
		{URL: "https://a", Locale: "English", StatusCode: outcome.ErrorStatus(), ErrorType: outcome.NetworkError, Latency: 4999.9},
	}

	snap := Aggregate(AggregateInput{Outcomes: outcomes, Targets: targets, Now: aggNow})

	assert.Equal(t, aggNow, snap.LastUpdated)
	assert.Equal(t, 1, snap.TotalRuns)
	assert.Equal(t, 5, snap.TotalURLs)
	assert.Equal(t, 4, snap.BrokenLinks)
	assert.Equal(t, 20.0, snap.SuccessRate)
	assert.Equal(t, map[string]int{"404": 2, "Timeout": 1, "Error": 1}, snap.ErrorDistribution)
	assert.Equal(t, snapshot.ResponseTimeDistribution{Under1s: 1, From1To3s: 1, From3To5s: 1, Over5s: 1}, snap.ResponseTimeDistribution)
	assert.Equal(t, len(outcomes), snap.ResponseTimeDistribution.Total())

	assert.Equal(t, []snapshot.LocaleStats{
		{Name: "English", Total: 2, Broken: 2, SuccessRate: 0},
		{Name: "French", Total: 2, Broken: 2, SuccessRate: 0},
		{Name: "German", Total: 1, Broken: 0, SuccessRate: 100},
	}, snap.Locales)

	require.Len(t, snap.BrokenLinksList, 4)
	assert.Equal(t, "https://a", snap.BrokenLinksList[0].URL)
	assert.Equal(t, "https://d", snap.BrokenLinksList[3].URL)

	require.Len(t, snap.Trends, 1)
	assert.Equal(t, snapshot.Trend{Date: aggNow, BrokenLinks: 4, TotalURLs: 5, ErrorDistribution: snap.ErrorDistribution}, snap.Trends[0])
}

func TestAggregate_Empty(t *testing.T) {
	snap := Aggregate(AggregateInput{Now: aggNow})
	assert.Equal(t, 100.0, snap.SuccessRate)
	assert.Equal(t, 0, snap.TotalURLs)
	assert.Empty(t, snap.Locales)
	assert.NotNil(t, snap.ErrorDistribution)
	assert.NotNil(t, snap.BrokenLinksList)
	assert.Len(t, snap.Trends, 1)
}

func TestAggregate_CarriesRunsAndTrends(t *testing.T) {
	prev := &snapshot.RunSnapshot{TotalRuns: 41, TotalURLs: 999, BrokenLinks: 998}
	for i := 0; i < 150; i++ {
		prev.Trends = append(prev.Trends, snapshot.Trend{Date: aggNow.Add(-time.Duration(150-i) * time.Hour), BrokenLinks: i})
	}

	snap := Aggregate(AggregateInput{Previous: prev, Now: aggNow})
	assert.Equal(t, 42, snap.TotalRuns)
	assert.Equal(t, 0, snap.TotalURLs)
	assert.Len(t, snap.Trends, 151)

	cur := &snap
	for n := 1; n <= 60; n++ {
		next := Aggregate(AggregateInput{Previous: cur, Now: aggNow.Add(time.Duration(n) * time.Minute)})
		cur = &next
		assert.Len(t, cur.Trends, min(151+n, snapshot.MaxTrends))
	}
	assert.Equal(t, 102, cur.TotalRuns)
	last := cur.Trends[len(cur.Trends)-1]
	assert.Equal(t, aggNow.Add(60*time.Minute), last.Date)
	// 211 entries were produced; the 11 oldest are gone.
	assert.Equal(t, 11, cur.Trends[0].BrokenLinks)
}

func TestDropSpikes(t *testing.T) {
	trends := []snapshot.Trend{{BrokenLinks: 3}, {BrokenLinks: 1200}, {BrokenLinks: 5}, {BrokenLinks: 800}}
	assert.Equal(t, []snapshot.Trend{{BrokenLinks: 3}, {BrokenLinks: 5}}, DropSpikes(trends, 800))

	snap := Aggregate(AggregateInput{
		Previous:       &snapshot.RunSnapshot{Trends: trends},
		Now:            aggNow,
		SpikeThreshold: 1000,
	})
	require.Len(t, snap.Trends, 4)
	for _, tr := range snap.Trends {
		assert.Less(t, tr.BrokenLinks, 1000)
	}
}

func TestLatencyBuckets_SumMatchesDefined(t *testing.T) {
	var outs []outcome.Outcome
	for i := 0; i < 100; i++ {
		outs = append(outs, outcome.Outcome{URL: fmt.Sprint(i), Latency: float64(i * 97)})
	}
	outs = append(outs, outcome.Outcome{URL: "neg", Latency: -1})
	d := latencyBuckets(outs)
	assert.Equal(t, 100, d.Total())
}
