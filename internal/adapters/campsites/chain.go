// Package campsites composes several campsite sources into one provider.
package campsites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/logging"
)

// Chain queries providers in order and returns the first non-empty answer.
type Chain struct {
	providers []ports.CampsiteProvider
}

// NewChain creates a Chain. Order is priority order.
func NewChain(providers ...ports.CampsiteProvider) *Chain {
	return &Chain{providers: providers}
}

// Name lists the chained sources, e.g. "ridb>mock".
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

// Search tries each provider until one returns candidates. Errors are only
// returned when every provider failed.
func (c *Chain) Search(ctx context.Context, q ports.CampsiteQuery) ([]domain.Campsite, error) {
	var errs []error
	succeeded := false
	for _, p := range c.providers {
		sites, err := p.Search(ctx, q)
		if err != nil {
			logging.FromContext(ctx).Debug("campsite source failed, trying next",
				slog.String("provider", p.Name()), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		succeeded = true
		if len(sites) > 0 {
			return sites, nil
		}
	}
	if !succeeded && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []domain.Campsite{}, nil
}

// GetByID asks each provider in turn. domain.ErrNotFound is returned only
// when no provider knows the id and none failed.
func (c *Chain) GetByID(ctx context.Context, id string) (*domain.Campsite, error) {
	var errs []error
	for _, p := range c.providers {
		site, err := p.GetByID(ctx, id)
		if err == nil {
			return site, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, domain.ErrNotFound
}
