package svc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hkauso/pastemd/cfg"
	"github.com/hkauso/pastemd/metrics"
	"github.com/hkauso/pastemd/pkg/domain"
	"github.com/hkauso/pastemd/svc/auth"
	"github.com/hkauso/pastemd/svc/cache"
	"github.com/hkauso/pastemd/svc/db"
	"github.com/hkauso/pastemd/svc/util"
)

const (
	pasteKeyPrefix = "paste:"
	viewsKeyPrefix = "views:"

	generatedSlugLength = 10
)

// Paste orchestrates the durable store, the cache layer, the credential
// codec and the authorization resolver into the paste CRUD surface. The
// store and cache are the only shared mutable state; the engine itself
// holds no locks.
type Paste struct {
	store  db.Store
	cache  cache.Store
	hasher *auth.Hasher
	cfg    *cfg.Cfg
}

func NewPaste(store db.Store, c cache.Store, h *auth.Hasher, conf *cfg.Cfg) *Paste {
	if store == nil || c == nil || h == nil || conf == nil {
		panic("paste service: nil dependency (store, cache, hasher, or cfg)")
	}
	return &Paste{
		store:  store,
		cache:  c,
		hasher: h,
		cfg:    conf,
	}
}

// Create validates and persists a new paste. The returned string is the
// plaintext edit password, handed to the creator exactly once; the
// returned record also carries it in place of the stored hash. Every
// later retrieval sees only the hash.
func (p *Paste) Create(ctx context.Context, params domain.PasteCreate) (string, *domain.Paste, error) {
	url := util.NormalizeURL(params.URL)
	if url == "" {
		generated, err := util.GenSlug(generatedSlugLength, func(s string) (bool, error) {
			return p.store.ExistsURL(ctx, util.NormalizeURL(s))
		})
		if err != nil {
			return "", nil, errors.Wrap(err, "gen slug")
		}
		// generated slugs must survive the lowercasing every lookup applies
		url = util.NormalizeURL(generated)
	}
	// fast-path duplicate check; the store's unique index on url is the
	// authoritative guard under concurrent creates
	exists, err := p.store.ExistsURL(ctx, url)
	if err != nil {
		return "", nil, errors.Wrap(err, "exists check")
	}
	if exists {
		return "", nil, domain.ErrAlreadyExists
	}
	if err := util.ValidateURL(url); err != nil {
		return "", nil, err
	}
	if err := util.ValidateContent(params.Content); err != nil {
		return "", nil, err
	}
	plaintext := params.Password
	if plaintext == "" {
		plaintext, err = p.hasher.GeneratePassword()
		if err != nil {
			return "", nil, errors.Wrap(err, "generate password")
		}
	}
	now := time.Now().UnixMilli()
	paste := &domain.Paste{
		ID:            uuid.New().String(),
		URL:           url,
		Content:       params.Content,
		Password:      p.hasher.Hash(plaintext),
		DatePublished: now,
		DateEdited:    now,
	}
	if err := p.store.CreatePaste(ctx, paste); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return "", nil, domain.ErrAlreadyExists
		}
		return "", nil, errors.Wrap(err, "create paste")
	}
	metrics.PasteCreated.Inc()
	out := *paste
	out.Password = plaintext
	return plaintext, &out, nil
}

// Clone creates a new paste whose content is copied from an existing
// one.
func (p *Paste) Clone(ctx context.Context, params domain.PasteClone) (string, *domain.Paste, error) {
	src, err := p.Read(ctx, params.Source)
	if err != nil {
		return "", nil, err
	}
	return p.Create(ctx, domain.PasteCreate{
		URL:      params.URL,
		Content:  src.Content,
		Password: params.Password,
	})
}

// Read returns the paste stored under url, going through the cache. The
// returned record carries the password hash; callers exposing it use
// Public().
func (p *Paste) Read(ctx context.Context, url string) (*domain.Paste, error) {
	url = util.NormalizeURL(url)
	key := pasteKeyPrefix + url
	if data, ok, err := p.cache.Get(ctx, key); err != nil {
		util.Warn().Err(err).Str("url", url).Msg("cache unavailable, falling through to store")
	} else if ok {
		var paste domain.Paste
		if err := json.Unmarshal([]byte(data), &paste); err != nil {
			util.Warn().Err(err).Str("url", url).Msg("corrupt cache entry, dropping")
			if err := p.cache.Remove(ctx, key); err != nil {
				util.Warn().Err(err).Str("url", url).Msg("failed to drop corrupt cache entry")
			}
		} else {
			metrics.CacheHits.Inc()
			metrics.PasteRetrieved.Inc()
			return &paste, nil
		}
	}
	metrics.CacheMisses.Inc()
	paste, err := p.store.GetPasteByURL(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "get paste")
	}
	if data, err := json.Marshal(paste); err != nil {
		util.Warn().Err(err).Str("url", url).Msg("failed to marshal paste for cache")
	} else if err := p.cache.Set(ctx, key, string(data)); err != nil {
		util.Warn().Err(err).Str("url", url).Msg("failed to populate cache")
	}
	metrics.PasteRetrieved.Inc()
	return paste, nil
}

// Delete removes a paste and all of its cache and view-count state. A
// second delete of the same url reports NotFound.
func (p *Paste) Delete(ctx context.Context, url, password string) error {
	url = util.NormalizeURL(url)
	paste, err := p.Read(ctx, url)
	if err != nil {
		return err
	}
	if !p.hasher.Verify(password, paste.Password) {
		return domain.ErrPasswordIncorrect
	}
	if err := p.store.DeletePaste(ctx, url); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return errors.Wrap(err, "delete paste")
	}
	p.invalidate(ctx, url)
	if err := p.cache.Remove(ctx, viewsKeyPrefix+url); err != nil {
		util.Warn().Err(err).Str("url", url).Msg("view counter invalidation failed")
	}
	if p.cfg.ViewMode == cfg.ViewModeAuthenticatedOnce {
		if err := p.store.DeleteViews(ctx, url); err != nil {
			return errors.Wrap(err, "delete view records")
		}
	}
	metrics.PasteDeleted.Inc()
	util.Info().Str("url", url).Msg("paste deleted")
	return nil
}

// Edit replaces content, url and password of an existing paste. The
// password gate is skipped entirely when the requester owns the paste
// or may manage pastes, even if the supplied password is wrong.
func (p *Paste) Edit(ctx context.Context, url string, params domain.PasteEdit, requester *auth.Identity) error {
	url = util.NormalizeURL(url)
	existing, err := p.Read(ctx, url)
	if err != nil {
		return err
	}
	if !auth.CanBypassPassword(existing.Metadata.Owner, requester) {
		if !p.hasher.Verify(params.Password, existing.Password) {
			return domain.ErrPasswordIncorrect
		}
	}
	if err := util.ValidateContent(params.NewContent); err != nil {
		return err
	}
	newHash := existing.Password
	if params.NewPassword != "" {
		newHash = p.hasher.Hash(params.NewPassword)
	}
	newURL := existing.URL
	if params.NewURL != "" {
		newURL = util.NormalizeURL(params.NewURL)
		if err := util.ValidateURL(newURL); err != nil {
			return err
		}
		if newURL != existing.URL {
			taken, err := p.store.ExistsURL(ctx, newURL)
			if err != nil {
				return errors.Wrap(err, "exists check")
			}
			if taken {
				return domain.ErrAlreadyExists
			}
		}
	}
	updated := *existing
	updated.URL = newURL
	updated.Content = params.NewContent
	updated.Password = newHash
	updated.DateEdited = editTimestamp(existing.DateEdited)
	if err := p.store.UpdatePaste(ctx, url, &updated); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		return errors.Wrap(err, "update paste")
	}
	// only the old key is invalidated; if the slug moved, the next read
	// of the new slug repopulates from the store
	p.invalidate(ctx, url)
	metrics.PasteEdited.Inc()
	return nil
}

// EditMetadata persists only the metadata field, behind the same
// authorization gate as Edit.
func (p *Paste) EditMetadata(ctx context.Context, url, password string, meta domain.PasteMetadata, requester *auth.Identity) error {
	url = util.NormalizeURL(url)
	existing, err := p.Read(ctx, url)
	if err != nil {
		return err
	}
	if !auth.CanBypassPassword(existing.Metadata.Owner, requester) {
		if !p.hasher.Verify(password, existing.Password) {
			return domain.ErrPasswordIncorrect
		}
	}
	if err := p.store.UpdatePasteMetadata(ctx, url, meta); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return errors.Wrap(err, "update metadata")
	}
	p.invalidate(ctx, url)
	metrics.PasteEdited.Inc()
	return nil
}

func (p *Paste) invalidate(ctx context.Context, url string) {
	if err := p.cache.Remove(ctx, pasteKeyPrefix+url); err != nil {
		util.Warn().Err(err).Str("url", url).Msg("cache invalidation failed")
	}
}

// editTimestamp returns the current epoch-millisecond time, nudged
// forward when the clock is too coarse to move past the previous edit.
func editTimestamp(prev int64) int64 {
	now := time.Now().UnixMilli()
	if now <= prev {
		now = prev + 1
	}
	return now
}
