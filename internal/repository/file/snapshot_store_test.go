package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Linkerus/internal/domain/outcome"
	"github.com/NordCoder/Linkerus/internal/domain/snapshot"
)

func sampleSnapshot() *snapshot.RunSnapshot {
	ts := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	return &snapshot.RunSnapshot{
		LastUpdated: ts,
		TotalRuns:   3,
		TotalURLs:   10,
		BrokenLinks: 2,
		SuccessRate: 80,
		BrokenLinksList: []outcome.Outcome{
			{URL: "https://x/404", Locale: "English", StatusCode: outcome.HTTPStatus(404), ErrorType: outcome.ClientError, LastChecked: ts, Latency: 120, Text: "<b>Docs</b> & more"},
			{URL: "https://x/slow", Locale: "French", StatusCode: outcome.TimeoutStatus(), ErrorType: outcome.TimeoutError, LastChecked: ts, Latency: 20000},
		},
		Locales:                  []snapshot.LocaleStats{{Name: "English", Total: 6, Broken: 1, SuccessRate: 83.33}},
		ErrorDistribution:        map[string]int{"404": 1, "Timeout": 1},
		ResponseTimeDistribution: snapshot.ResponseTimeDistribution{Under1s: 1, Over5s: 1},
		Trends:                   []snapshot.Trend{{Date: ts, BrokenLinks: 2, TotalURLs: 10}},
	}
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	s := NewSnapshotStore(filepath.Join(t.TempDir(), "results.json"), nil, nil)
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "results.json")
	mirror := filepath.Join(dir, "dashboard", "data", "results.json")
	s := NewSnapshotStore(path, []string{mirror}, nil)

	want := sampleSnapshot()
	require.NoError(t, s.Save(context.Background(), want))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.TotalRuns, got.TotalRuns)
	assert.Equal(t, want.BrokenLinksList, got.BrokenLinksList)
	assert.Equal(t, want.ErrorDistribution, got.ErrorDistribution)
	assert.Equal(t, want.ResponseTimeDistribution, got.ResponseTimeDistribution)

	primary, err := os.ReadFile(path)
	require.NoError(t, err)
	copied, err := os.ReadFile(mirror)
	require.NoError(t, err)
	assert.Equal(t, primary, copied)

	body := string(primary)
	for _, key := range []string{`"<1s"`, `"1-3s"`, `"3-5s"`, `">5s"`, `"brokenLinksList"`, `"statusCode": "Timeout"`, `"statusCode": 404`} {
		assert.Contains(t, body, key)
	}
	assert.NotContains(t, body, `\u003c`)
	assert.NotContains(t, body, `\u003e`)
	assert.Contains(t, body, `"text": "<b>Docs</b> & more"`)
	assert.True(t, strings.HasPrefix(body, "{\n  \""))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSnapshotStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"totalRuns": "many"`), 0o644))

	_, err := NewSnapshotStore(path, nil, nil).Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestSnapshotStore_CancelledSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, NewSnapshotStore(path, nil, nil).Save(ctx, sampleSnapshot()), context.Canceled)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

const legacyResults = `{
  "lastUpdated": "2025-01-01T12:00:00.123456",
  "totalRuns": 41,
  "totalUrls": 3,
  "brokenLinks": 1,
  "successRate": 66.66666666666667,
  "brokenLinksList": [
    {
      "url": "https://www.example.com/gone",
      "locale": "English",
      "statusCode": 404,
      "errorType": "Client Error",
      "lastChecked": "2025-01-01T11:59:58.5",
      "latency": 212.4,
      "isDeepCheck": true,
      "source": "https://www.example.com/",
      "text": "Gone"
    }
  ],
  "locales": [{"name": "English", "total": 3, "broken": 1, "successRate": 66.66666666666667}],
  "errorDistribution": {"404": 1},
  "responseTimeDistribution": {"<1s": 1, "1-3s": 0, "3-5s": 0, ">5s": 0},
  "trends": [
    {"date": "2024-12-31T12:00:00", "brokenLinks": 0, "totalUrls": 3},
    {"date": "2025-01-01T12:00:00.123456", "brokenLinks": 1, "totalUrls": 3, "errorDistribution": {"404": 1}}
  ]
}`

func TestSnapshotStore_LoadsNaiveTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyResults), 0o644))

	got, err := NewSnapshotStore(path, nil, nil).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 41, got.TotalRuns)
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 123456000, time.UTC), got.LastUpdated)
	require.Len(t, got.Trends, 2)
	assert.Equal(t, time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), got.Trends[0].Date)
	assert.Equal(t, map[string]int{"404": 1}, got.Trends[1].ErrorDistribution)
	require.Len(t, got.BrokenLinksList, 1)
	assert.Equal(t, time.Date(2025, 1, 1, 11, 59, 58, 500000000, time.UTC), got.BrokenLinksList[0].LastChecked)
	assert.Equal(t, outcome.HTTPStatus(404), got.BrokenLinksList[0].StatusCode)
	assert.Equal(t, 1, got.ResponseTimeDistribution.Under1s)
}
