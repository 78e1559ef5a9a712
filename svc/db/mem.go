package db

import (
	"context"
	"sync"

	"github.com/hkauso/pastemd/pkg/domain"
)

// Mem is the in-memory Store adapter used by engine tests. All records
// live behind one mutex; copies go in and out so callers never share
// memory with the store.
type Mem struct {
	mu     sync.Mutex
	pastes map[string]domain.Paste // keyed by url
	views  map[string]map[string]struct{}
	docs   map[string]map[string]domain.Document // namespace -> id
}

func NewMem() *Mem {
	return &Mem{
		pastes: make(map[string]domain.Paste),
		views:  make(map[string]map[string]struct{}),
		docs:   make(map[string]map[string]domain.Document),
	}
}

func (m *Mem) CreatePaste(ctx context.Context, p *domain.Paste) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pastes[p.URL]; ok {
		return domain.ErrAlreadyExists
	}
	m.pastes[p.URL] = *p
	return nil
}

func (m *Mem) GetPasteByURL(ctx context.Context, url string) (*domain.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pastes[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := p
	return &out, nil
}

func (m *Mem) ExistsURL(ctx context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pastes[url]
	return ok, nil
}

func (m *Mem) UpdatePaste(ctx context.Context, url string, p *domain.Paste) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.pastes[url]
	if !ok {
		return domain.ErrNotFound
	}
	if p.URL != url {
		if _, taken := m.pastes[p.URL]; taken {
			return domain.ErrAlreadyExists
		}
		delete(m.pastes, url)
	}
	existing.URL = p.URL
	existing.Password = p.Password
	existing.Content = p.Content
	existing.DateEdited = p.DateEdited
	m.pastes[p.URL] = existing
	return nil
}

func (m *Mem) UpdatePasteMetadata(ctx context.Context, url string, meta domain.PasteMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pastes[url]
	if !ok {
		return domain.ErrNotFound
	}
	p.Metadata = meta
	m.pastes[url] = p
	return nil
}

func (m *Mem) DeletePaste(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pastes[url]; !ok {
		return domain.ErrNotFound
	}
	delete(m.pastes, url)
	return nil
}

func (m *Mem) HasView(ctx context.Context, url, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.views[url][username]
	return ok, nil
}

func (m *Mem) AddView(ctx context.Context, url, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.views[url] == nil {
		m.views[url] = make(map[string]struct{})
	}
	m.views[url][username] = struct{}{}
	return nil
}

func (m *Mem) CountViews(ctx context.Context, url string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.views[url])), nil
}

func (m *Mem) DeleteViews(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.views, url)
	return nil
}

func (m *Mem) CreateDocument(ctx context.Context, d *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[d.Namespace] == nil {
		m.docs[d.Namespace] = make(map[string]domain.Document)
	}
	if _, ok := m.docs[d.Namespace][d.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.docs[d.Namespace][d.ID] = *d
	return nil
}

func (m *Mem) GetDocument(ctx context.Context, namespace, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[namespace][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := d
	return &out, nil
}

func (m *Mem) UpdateDocument(ctx context.Context, d *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[d.Namespace][d.ID]; !ok {
		return domain.ErrNotFound
	}
	m.docs[d.Namespace][d.ID] = *d
	return nil
}

func (m *Mem) DeleteDocument(ctx context.Context, namespace, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[namespace][id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs[namespace], id)
	return nil
}

func (m *Mem) ListDocuments(ctx context.Context, namespace string) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []*domain.Document
	for _, d := range m.docs[namespace] {
		out := d
		docs = append(docs, &out)
	}
	return docs, nil
}

func (m *Mem) Ping(ctx context.Context) error { return nil }

func (m *Mem) Close() error { return nil }
