package geocode

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"github.com/patrickmn/go-cache"
)

// Suggest returns up to the configured limit of city names matching query.
// Queries shorter than two characters yield nothing. When the geocoding
// service fails or knows no match, the offline default city list is
// filtered by case-insensitive substring instead.
func (r *Resolver) Suggest(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSuggestQuery {
		return []string{}
	}

	key := strings.ToLower(query)
	if cached, found := r.suggested.Get(key); found {
		return slices.Clone(cached.([]string))
	}

	results, err := r.search(ctx, query, r.suggestCount)
	r.record(metrics.LabelSuggest, err)
	if err != nil {
		getLogger().Debug("Suggestion lookup failed, using default cities", "query", query, "error", err)
		return r.fallbackSuggestions(query)
	}

	names := make([]string, 0, r.suggestLimit)
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		if res.Name == "" {
			continue
		}
		if _, dup := seen[res.Name]; dup {
			continue
		}
		seen[res.Name] = struct{}{}
		names = append(names, res.Name)
		if len(names) == r.suggestLimit {
			break
		}
	}
	if len(names) == 0 {
		return r.fallbackSuggestions(query)
	}

	r.suggested.Set(key, slices.Clone(names), cache.DefaultExpiration)
	return names
}

func (r *Resolver) fallbackSuggestions(query string) []string {
	needle := strings.ToLower(query)
	names := []string{}
	for _, city := range r.defaultCities {
		if strings.Contains(strings.ToLower(city), needle) {
			names = append(names, city)
			if len(names) == r.suggestLimit {
				break
			}
		}
	}
	return names
}
