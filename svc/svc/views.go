package svc

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hkauso/pastemd/cfg"
	"github.com/hkauso/pastemd/metrics"
	"github.com/hkauso/pastemd/svc/auth"
	"github.com/hkauso/pastemd/svc/util"
)

// IncrementView counts a view of the paste stored under url.
//
// In open-multiple mode every call bumps an in-cache counter; the count
// is ephemeral and resets if the cache is cleared. In authenticated-once
// mode each identity is counted at most once, backed by durable
// (url, username) records; anonymous views are dropped without error.
func (p *Paste) IncrementView(ctx context.Context, url string, requester *auth.Identity) error {
	url = util.NormalizeURL(url)
	key := viewsKeyPrefix + url
	switch p.cfg.ViewMode {
	case cfg.ViewModeOpenMultiple:
		if _, err := p.cache.Increment(ctx, key); err != nil {
			return errors.Wrap(err, "incr view counter")
		}
		metrics.ViewsCounted.Inc()
		return nil
	case cfg.ViewModeAuthenticatedOnce:
		if requester == nil {
			return nil
		}
		seen, err := p.store.HasView(ctx, url, requester.Username)
		if err != nil {
			return errors.Wrap(err, "check view record")
		}
		if seen {
			return nil
		}
		if err := p.store.AddView(ctx, url, requester.Username); err != nil {
			return errors.Wrap(err, "add view record")
		}
		existed, err := p.cache.Increment(ctx, key)
		if err != nil {
			util.Warn().Err(err).Str("url", url).Msg("view counter incr failed, will repopulate from store")
		} else if !existed {
			// A fresh key starts at 1 regardless of how many durable
			// records exist, so after an eviction it must be rebuilt
			// from the store or the observed count would go backwards.
			n, err := p.store.CountViews(ctx, url)
			if err != nil {
				return errors.Wrap(err, "count view records")
			}
			if err := p.cache.Set(ctx, key, strconv.FormatInt(n, 10)); err != nil {
				util.Warn().Err(err).Str("url", url).Msg("failed to repopulate view counter")
			}
		}
		metrics.ViewsCounted.Inc()
		return nil
	default:
		return errors.Errorf("unknown view mode %q", p.cfg.ViewMode)
	}
}

// GetViewCount reads the counter for url. A cache miss means zero in
// open-multiple mode; in authenticated-once mode it falls back to
// counting durable view records and repopulates the cache.
func (p *Paste) GetViewCount(ctx context.Context, url string) (int64, error) {
	url = util.NormalizeURL(url)
	key := viewsKeyPrefix + url
	if v, ok, err := p.cache.Get(ctx, key); err != nil {
		util.Warn().Err(err).Str("url", url).Msg("cache unavailable for view count")
	} else if ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.Wrap(err, "parse view counter")
		}
		return n, nil
	}
	if p.cfg.ViewMode == cfg.ViewModeOpenMultiple {
		return 0, nil
	}
	n, err := p.store.CountViews(ctx, url)
	if err != nil {
		return 0, errors.Wrap(err, "count view records")
	}
	if err := p.cache.Set(ctx, key, strconv.FormatInt(n, 10)); err != nil {
		util.Warn().Err(err).Str("url", url).Msg("failed to repopulate view counter")
	}
	return n, nil
}
