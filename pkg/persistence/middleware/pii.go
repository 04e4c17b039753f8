package middleware

import (
	"context"
	"regexp"

	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
)

type piiMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks run values whose keys
// match the patterns before they reach the underlying store. Masking is
// destructive: the original values are not recoverable from the store.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunStore) ports.RunStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, rec *domain.RunRecord) error {
	// Deep clone to avoid side effects on the record held by the caller.
	cloned := *rec
	cloned.Values = deepCopyMap(rec.Values)

	maskMap(cloned.Values, m.patterns)

	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, correlationID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, correlationID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]*domain.RunRecord, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) Delete(ctx context.Context, correlationID string) error {
	return m.next.Delete(ctx, correlationID)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		// Handle nested maps
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
