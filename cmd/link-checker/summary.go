package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/NordCoder/Linkerus/internal/domain/run"
	linkchecker "github.com/NordCoder/Linkerus/internal/services/link-checker"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	badColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

const maxListedBroken = 25

func printSummary(w io.Writer, rep *linkchecker.Report) {
	s := rep.Snapshot
	_, _ = dimColor.Fprintf(w, "run %s  (%s)\n", rep.RunID, rep.Duration.Round(time.Millisecond))

	rate := okColor
	switch {
	case s.SuccessRate < 90:
		rate = badColor
	case s.SuccessRate < 99:
		rate = warnColor
	}
	_, _ = fmt.Fprintf(w, "checked %d urls, %d broken, success rate ", s.TotalURLs, s.BrokenLinks)
	_, _ = rate.Fprintf(w, "%.2f%%\n", s.SuccessRate)

	if rep.Unchecked > 0 {
		_, _ = warnColor.Fprintf(w, "%d targets were not checked before the deadline\n", rep.Unchecked)
	}
	for _, f := range rep.Failures {
		_, _ = badColor.Fprintf(w, "partition %d failed: %v\n", f.Index, f.Err)
	}

	for _, l := range s.Locales {
		c := okColor
		if l.Broken > 0 {
			c = warnColor
		}
		_, _ = c.Fprintf(w, "  %-20s %5d total %5d broken %7.2f%%\n", l.Name, l.Total, l.Broken, l.SuccessRate)
	}

	if len(s.ErrorDistribution) > 0 {
		keys := make([]string, 0, len(s.ErrorDistribution))
		for k := range s.ErrorDistribution {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		_, _ = fmt.Fprint(w, "errors:")
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, " %s=%d", k, s.ErrorDistribution[k])
		}
		_, _ = fmt.Fprintln(w)
	}

	for i, o := range s.BrokenLinksList {
		if i == maxListedBroken {
			_, _ = dimColor.Fprintf(w, "  ... %d more\n", len(s.BrokenLinksList)-maxListedBroken)
			break
		}
		_, _ = badColor.Fprintf(w, "  %-8s", o.StatusCode.String())
		_, _ = fmt.Fprintf(w, " %s ", o.URL)
		_, _ = dimColor.Fprintf(w, "[%s] from %s\n", o.Locale, o.Source)
	}
}

func printHistory(w io.Writer, runs []*run.Run) {
	if len(runs) == 0 {
		_, _ = dimColor.Fprintln(w, "no archived runs")
		return
	}
	for _, r := range runs {
		c := okColor
		if r.BrokenLinks > 0 {
			c = warnColor
		}
		_, _ = fmt.Fprintf(w, "%s  %s  run #%-5d %6d urls ", r.FinishedAt.Format(time.RFC3339), r.ID, r.TotalRuns, r.TotalURLs)
		_, _ = c.Fprintf(w, "%5d broken %7.2f%%\n", r.BrokenLinks, r.SuccessRate)
	}
}
