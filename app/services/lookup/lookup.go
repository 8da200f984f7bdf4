// Package lookup wraps the external barcode/product-data providers behind a
// single Provider contract and aggregates them.
//
// Every provider caches its answers through pkg/cache (12h for point
// lookups, 1h for searches). Quota exhaustion upstream is reported as
// ErrQuotaExceeded and is never cached or turned into "not found".
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

const (
	LookupTTL = 12 * time.Hour
	SearchTTL = time.Hour
)

var (
	// ErrQuotaExceeded is returned when an upstream answers HTTP 429.
	ErrQuotaExceeded = errors.New("lookup: upstream quota exceeded")
	// ErrUpstream covers every other non-2xx or undecodable upstream answer.
	ErrUpstream = errors.New("lookup: upstream error")
	// ErrUnknownProvider is returned for a forced provider name nobody registered.
	ErrUnknownProvider = errors.New("lookup: unknown provider")
)

// Provider is one external product-data source.
type Provider interface {
	Name() string
	// Lookup returns nil, nil when the barcode is unknown upstream.
	Lookup(ctx context.Context, barcode string) (*Result, error)
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// ExternalLookuper is implemented by providers whose items have their own
// identifiers (Wikidata QIDs).
type ExternalLookuper interface {
	LookupExternal(ctx context.Context, externalID string) (*Result, error)
}

// SecretSource resolves API keys. The site secrets resolver satisfies it.
type SecretSource interface {
	Resolve(ctx context.Context, key string) string
}

// Result is a product description returned by a provider. It is never
// persisted as is.
type Result struct {
	Barcode     string   `json:"barcode,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Color       string   `json:"color,omitempty"`
	Images      []string `json:"images,omitempty"`
	Source      string   `json:"source"`
	ExternalID  string   `json:"external_id,omitempty"`
}

// DedupeKey is the barcode when present, else "source:externalId". Results
// with neither return "" and are never deduplicated.
func (r Result) DedupeKey() string {
	if r.Barcode != "" {
		return r.Barcode
	}
	if r.Source != "" && r.ExternalID != "" {
		return r.Source + ":" + r.ExternalID
	}
	return ""
}

// NormalizeBarcode strips every non-digit character.
func NormalizeBarcode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeQuery lowercases and collapses whitespace for cache keys.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// cachedPoint is the cache envelope for point lookups. Found=false records
// a clean "not found" answer.
type cachedPoint struct {
	Found  bool    `json:"found"`
	Result *Result `json:"result,omitempty"`
}

func rememberPoint(ctx context.Context, provider, op, key string, fetch func() (*Result, error)) (*Result, error) {
	var hit cachedPoint
	if cache.GetCtx(ctx, key, &hit) {
		metrics.RecordLookup(provider, op, "cache_hit")
		if !hit.Found {
			return nil, nil
		}
		return hit.Result, nil
	}

	res, err := fetch()
	if err != nil {
		metrics.RecordLookup(provider, op, outcome(err))
		return nil, err
	}

	_ = cache.SetCtx(ctx, key, cachedPoint{Found: res != nil, Result: res}, LookupTTL)
	if res == nil {
		metrics.RecordLookup(provider, op, "not_found")
	} else {
		metrics.RecordLookup(provider, op, "found")
	}
	return res, nil
}

func rememberSearch(ctx context.Context, provider, key string, fetch func() ([]Result, error)) ([]Result, error) {
	var hit []Result
	if cache.GetCtx(ctx, key, &hit) {
		metrics.RecordLookup(provider, "search", "cache_hit")
		return hit, nil
	}

	res, err := fetch()
	if err != nil {
		metrics.RecordLookup(provider, "search", outcome(err))
		return nil, err
	}
	if res == nil {
		res = []Result{}
	}
	_ = cache.SetCtx(ctx, key, res, SearchTTL)
	metrics.RecordLookup(provider, "search", "ok")
	return res, nil
}

func outcome(err error) string {
	if errors.Is(err, ErrQuotaExceeded) {
		return "quota"
	}
	return "error"
}

func cacheKey(provider, op string, parts ...string) string {
	return fmt.Sprintf("lookup:%s:%s:%s", provider, op, strings.Join(parts, ":"))
}

// statusError maps a non-2xx status to the package errors.
func statusError(provider string, status int, body []byte) error {
	if status == 429 {
		return fmt.Errorf("%s: %w", provider, ErrQuotaExceeded)
	}
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Errorf("%s: status %d: %s: %w", provider, status, snippet, ErrUpstream)
}

func truncate(items []Result, limit int) []Result {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
