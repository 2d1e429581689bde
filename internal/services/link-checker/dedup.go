package link_checker

import (
	"sort"
	"strings"

	"github.com/NordCoder/Linkerus/internal/domain/target"
)

type DedupInput struct {
	DeepLinks     []target.DeepLink
	Surfaces      map[string][]string
	Prefixes      []target.LocalePrefix
	SiteDomain    string
	DefaultLocale string
}

// Deduplicate merges the deep-crawl list and the per-locale surface lists
// into one target per URL. A URL that carries a non-default locale never
// goes back to the default.
func Deduplicate(in DedupInput) map[string]target.CheckTarget {
	def := in.DefaultLocale
	if def == "" {
		def = target.DefaultLocale
	}
	out := make(map[string]target.CheckTarget, len(in.DeepLinks))

	for _, dl := range in.DeepLinks {
		u := strings.TrimSpace(dl.URL)
		if u == "" {
			continue
		}
		if _, ok := out[u]; ok {
			continue
		}
		out[u] = target.CheckTarget{
			URL:         u,
			Locale:      localeFor(u, in.SiteDomain, in.Prefixes, def),
			IsDeepCheck: true,
			Source:      orUnknown(dl.Source),
			Text:        orUnknown(dl.Text),
		}
	}

	names := make([]string, 0, len(in.Surfaces))
	for name := range in.Surfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, raw := range in.Surfaces[name] {
			u := strings.TrimSpace(raw)
			if u == "" {
				continue
			}
			if cur, ok := out[u]; ok {
				if cur.Locale == def && name != def {
					cur.Locale = name
					out[u] = cur
				}
				continue
			}
			out[u] = target.CheckTarget{
				URL:         u,
				Locale:      name,
				IsDeepCheck: false,
				Source:      u,
				Text:        target.TextBaseURL,
			}
		}
	}
	return out
}

// localeFor returns the name of the first prefix whose "<domain><href>/"
// occurs in u.
func localeFor(u, domain string, prefixes []target.LocalePrefix, def string) string {
	if domain == "" {
		return def
	}
	for _, p := range prefixes {
		if p.Href == "" || p.Text == "" {
			continue
		}
		if strings.Contains(u, domain+p.Href+"/") {
			return p.Text
		}
	}
	return def
}

func orUnknown(s string) string {
	if s == "" {
		return target.TextUnknown
	}
	return s
}

// Targets flattens the dedup result sorted by URL.
func Targets(m map[string]target.CheckTarget) []target.CheckTarget {
	out := make([]target.CheckTarget, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}
