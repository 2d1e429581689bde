package target

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultLocale = "English"

	TextBaseURL = "Base URL"
	TextUnknown = "Unknown"
)

// CheckTarget is one URL to probe together with where it came from.
type CheckTarget struct {
	URL         string `json:"url"`
	Locale      string `json:"locale"`
	IsDeepCheck bool   `json:"isDeepCheck"`
	Source      string `json:"source"`
	Text        string `json:"text"`
}

// DeepLink is an entry of the deep-crawl list. On disk it is either a bare
// URL string or an object with url/source/text; both decode into this shape.
type DeepLink struct {
	URL    string
	Source string
	Text   string
}

type deepLinkObject struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

var ErrEmptyDeepLink = errors.New("deep link without url")

func (d *DeepLink) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return ErrEmptyDeepLink
		}
		*d = DeepLink{URL: s, Source: TextUnknown, Text: TextUnknown}
		return nil
	}

	var obj deepLinkObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("deep link: %w", err)
	}
	obj.URL = strings.TrimSpace(obj.URL)
	if obj.URL == "" {
		return ErrEmptyDeepLink
	}
	if obj.Source == "" {
		obj.Source = TextUnknown
	}
	if obj.Text == "" {
		obj.Text = TextUnknown
	}
	*d = DeepLink{URL: obj.URL, Source: obj.Source, Text: obj.Text}
	return nil
}

func (d DeepLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(deepLinkObject{URL: d.URL, Source: d.Source, Text: d.Text})
}

// LocalePrefix maps a path prefix such as "/fr-fr" to a display name.
type LocalePrefix struct {
	Href string `json:"href"`
	Text string `json:"text"`
}
