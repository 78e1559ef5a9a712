package db

import (
	"context"

	"github.com/hkauso/pastemd/pkg/domain"
)

// Store is the durable persistence contract behind the cache layer. The
// SQLite adapter is the production implementation; Mem backs engine
// tests. Concurrency discipline lives inside the adapters, not in the
// engine.
type Store interface {
	CreatePaste(ctx context.Context, p *domain.Paste) error
	GetPasteByURL(ctx context.Context, url string) (*domain.Paste, error)
	ExistsURL(ctx context.Context, url string) (bool, error)
	// UpdatePaste rewrites the row currently stored under url with the
	// given record; the record's own URL may differ when the slug moves.
	UpdatePaste(ctx context.Context, url string, p *domain.Paste) error
	UpdatePasteMetadata(ctx context.Context, url string, meta domain.PasteMetadata) error
	DeletePaste(ctx context.Context, url string) error

	HasView(ctx context.Context, url, username string) (bool, error)
	AddView(ctx context.Context, url, username string) error
	CountViews(ctx context.Context, url string) (int64, error)
	DeleteViews(ctx context.Context, url string) error

	CreateDocument(ctx context.Context, d *domain.Document) error
	GetDocument(ctx context.Context, namespace, id string) (*domain.Document, error)
	UpdateDocument(ctx context.Context, d *domain.Document) error
	DeleteDocument(ctx context.Context, namespace, id string) error
	ListDocuments(ctx context.Context, namespace string) ([]*domain.Document, error)

	Ping(ctx context.Context) error
	Close() error
}
