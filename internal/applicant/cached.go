package applicant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/cache"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

const listCacheKey = "applicants:all"

// Cached fronts a Store with a read-through cache of the full list.
// Any write evicts the list. Cache failures fall back to the store.
type Cached struct {
	base  Store
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps base. A zero ttl disables caching of reads.
func NewCached(base Store, c cache.Cache, ttl time.Duration) *Cached {
	if c == nil {
		c = cache.Noop{}
	}
	return &Cached{base: base, cache: c, ttl: ttl}
}

func (c *Cached) FetchAll(ctx context.Context) ([]*Applicant, error) {
	if data, ok, err := c.cache.Get(ctx, listCacheKey); err != nil {
		slog.Warn("applicant cache read failed", "err", err)
	} else if ok {
		var list []*Applicant
		if err := json.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		c.evict(ctx)
	}

	list, err := c.base.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 {
		if data, err := json.Marshal(list); err == nil {
			if err := c.cache.Set(ctx, listCacheKey, data, c.ttl); err != nil {
				slog.Warn("applicant cache write failed", "err", err)
			}
		}
	}
	return list, nil
}

func (c *Cached) GetByID(ctx context.Context, id int64) (*Applicant, error) {
	return c.base.GetByID(ctx, id)
}

func (c *Cached) Insert(ctx context.Context, a *Applicant) (*Applicant, error) {
	created, err := c.base.Insert(ctx, a)
	if err != nil {
		return nil, err
	}
	c.evict(ctx)
	return created, nil
}

func (c *Cached) Update(ctx context.Context, id int64, p Patch) (*Applicant, error) {
	updated, err := c.base.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	c.evict(ctx)
	return updated, nil
}

func (c *Cached) SetStage(ctx context.Context, id int64, from, to pipeline.Stage) (*Applicant, error) {
	updated, err := c.base.SetStage(ctx, id, from, to)
	if errors.Is(err, pipeline.ErrStageChanged) {
		// Someone else moved it, so the cached list is out of date.
		c.evict(ctx)
	}
	if err != nil {
		return nil, err
	}
	c.evict(ctx)
	return updated, nil
}

// Invalidate drops the cached list.
func (c *Cached) Invalidate(ctx context.Context) {
	c.evict(ctx)
}

func (c *Cached) evict(ctx context.Context) {
	if err := c.cache.Delete(ctx, listCacheKey); err != nil {
		slog.Warn("applicant cache eviction failed", "err", err)
	}
}

type recounter interface {
	RecountDays(ctx context.Context) (int64, error)
}

// RecountDays refreshes days in stage when the base store supports it.
func (c *Cached) RecountDays(ctx context.Context) (int64, error) {
	r, ok := c.base.(recounter)
	if !ok {
		return 0, nil
	}
	n, err := r.RecountDays(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.evict(ctx)
	}
	return n, nil
}
