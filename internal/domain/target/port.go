package target

import "context"

// Source provides the raw inputs of a check pass.
type Source interface {
	DeepLinks(ctx context.Context) ([]DeepLink, error)
	LocaleMap(ctx context.Context) (map[string][]string, error)
	LocalePrefixes(ctx context.Context) ([]LocalePrefix, error)
}
