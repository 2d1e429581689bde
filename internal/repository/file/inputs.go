package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/NordCoder/Linkerus/internal/domain/target"
	"github.com/NordCoder/Linkerus/internal/obs"
)

// InputSource reads the crawler and locale-map outputs from disk.
type InputSource struct {
	DeepLinksPath      string
	LocaleMapPath      string
	LocalePrefixesPath string

	log *zap.Logger
}

var _ target.Source = (*InputSource)(nil)

func NewInputSource(deepLinks, localeMap, prefixes string, log *zap.Logger) *InputSource {
	return &InputSource{
		DeepLinksPath:      deepLinks,
		LocaleMapPath:      localeMap,
		LocalePrefixesPath: prefixes,
		log:                obs.Component(log, "file.inputs"),
	}
}

func (s *InputSource) DeepLinks(ctx context.Context) ([]target.DeepLink, error) {
	return LoadDeepLinks(ctx, s.DeepLinksPath, s.log)
}

func (s *InputSource) LocaleMap(ctx context.Context) (map[string][]string, error) {
	m, err := LoadLocaleMap(ctx, s.LocaleMapPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("locale map missing; continuing without surface targets", zap.String("path", s.LocaleMapPath))
		return map[string][]string{}, nil
	}
	return m, err
}

func (s *InputSource) LocalePrefixes(ctx context.Context) ([]target.LocalePrefix, error) {
	p, err := LoadLocalePrefixes(ctx, s.LocalePrefixesPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("locale prefixes missing; every deep link keeps the default locale", zap.String("path", s.LocalePrefixesPath))
		return nil, nil
	}
	return p, err
}

// LoadDeepLinks decodes the deep-crawl list. Entries that are neither a URL
// string nor an object with a url are skipped.
func LoadDeepLinks(ctx context.Context, path string, log *zap.Logger) ([]target.DeepLink, error) {
	var raw []json.RawMessage
	if err := readJSON(ctx, path, &raw); err != nil {
		return nil, err
	}
	log = obs.Component(log, "file.inputs")

	out := make([]target.DeepLink, 0, len(raw))
	skipped := 0
	for i, item := range raw {
		var dl target.DeepLink
		if err := json.Unmarshal(item, &dl); err != nil {
			skipped++
			log.Debug("skip deep link", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, dl)
	}
	if skipped > 0 {
		log.Warn("deep links skipped", zap.String("path", path), zap.Int("skipped", skipped))
	}
	return out, nil
}

func LoadLocaleMap(ctx context.Context, path string) (map[string][]string, error) {
	m := map[string][]string{}
	if err := readJSON(ctx, path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func LoadLocalePrefixes(ctx context.Context, path string) ([]target.LocalePrefix, error) {
	var p []target.LocalePrefix
	if err := readJSON(ctx, path, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func readJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("read input: %w", fs.ErrNotExist)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
