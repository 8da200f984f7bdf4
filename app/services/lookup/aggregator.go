package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// ModeAuto cascades through every provider in order.
const ModeAuto = "auto"

// Aggregator picks a forced provider or cascades through all of them.
type Aggregator struct {
	providers []Provider
	mode      string
}

// NewAggregator keeps providers in priority order. An empty mode means auto.
func NewAggregator(mode string, providers ...Provider) *Aggregator {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeAuto
	}
	return &Aggregator{providers: providers, mode: mode}
}

func (a *Aggregator) Mode() string { return a.mode }

// Provider returns the provider registered under name.
func (a *Aggregator) Provider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range a.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

func (a *Aggregator) active() ([]Provider, error) {
	if a.mode == ModeAuto {
		return a.providers, nil
	}
	p, err := a.Provider(a.mode)
	if err != nil {
		return nil, err
	}
	return []Provider{p}, nil
}

// Lookup returns the first non-nil result. When nobody found the barcode
// and a provider failed, the first failure is returned so a quota problem
// never reads as "not found".
func (a *Aggregator) Lookup(ctx context.Context, barcode string) (*Result, error) {
	providers, err := a.active()
	if err != nil {
		return nil, err
	}

	var firstErr error
	for _, p := range providers {
		res, err := p.Lookup(ctx, barcode)
		if err != nil {
			logger.WithCtx(ctx).Warn("lookup: provider failed", "provider", p.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, firstErr
}

// LookupExternal resolves an item by the provider's own id.
func (a *Aggregator) LookupExternal(ctx context.Context, source, externalID string) (*Result, error) {
	p, err := a.Provider(source)
	if err != nil {
		return nil, err
	}
	el, ok := p.(ExternalLookuper)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no external ids", ErrUnknownProvider, source)
	}
	return el.LookupExternal(ctx, externalID)
}

// Search concatenates provider results in order, drops later duplicates
// (see Result.DedupeKey) and truncates to limit. A provider failure is
// returned only when the merged list is empty.
func (a *Aggregator) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	providers, err := a.active()
	if err != nil {
		return nil, err
	}

	var firstErr error
	var merged []Result
	for _, p := range providers {
		items, err := p.Search(ctx, query, limit)
		if err != nil {
			logger.WithCtx(ctx).Warn("lookup: provider search failed", "provider", p.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		merged = append(merged, items...)
	}

	if len(merged) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return truncate(Dedupe(merged), limit), nil
}

// Dedupe keeps the first item per DedupeKey. Items without a key are kept.
func Dedupe(items []Result) []Result {
	seen := make(map[string]struct{}, len(items))
	out := make([]Result, 0, len(items))
	for _, it := range items {
		key := it.DedupeKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}
