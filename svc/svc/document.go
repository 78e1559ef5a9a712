package svc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hkauso/pastemd/pkg/domain"
	"github.com/hkauso/pastemd/svc/db"
)

// Documents is the generic namespaced CRUD primitive. It enforces no
// ownership or password policy; uniqueness within a namespace and
// permission checks are the caller's responsibility.
type Documents struct {
	store db.Store
}

func NewDocuments(store db.Store) *Documents {
	if store == nil {
		panic("document service: nil store")
	}
	return &Documents{store: store}
}

func (d *Documents) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if doc.Namespace == "" {
		return nil, domain.ErrValue
	}
	out := *doc
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	out.Timestamp = time.Now().UnixMilli()
	if err := d.store.CreateDocument(ctx, &out); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, errors.Wrap(err, "create document")
	}
	return &out, nil
}

func (d *Documents) Get(ctx context.Context, namespace, id string) (*domain.Document, error) {
	doc, err := d.store.GetDocument(ctx, namespace, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "get document")
	}
	return doc, nil
}

func (d *Documents) Update(ctx context.Context, doc *domain.Document) error {
	if doc.Namespace == "" || doc.ID == "" {
		return domain.ErrValue
	}
	out := *doc
	out.Timestamp = time.Now().UnixMilli()
	if err := d.store.UpdateDocument(ctx, &out); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return errors.Wrap(err, "update document")
	}
	return nil
}

func (d *Documents) Delete(ctx context.Context, namespace, id string) error {
	if err := d.store.DeleteDocument(ctx, namespace, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return errors.Wrap(err, "delete document")
	}
	return nil
}

func (d *Documents) List(ctx context.Context, namespace string) ([]*domain.Document, error) {
	docs, err := d.store.ListDocuments(ctx, namespace)
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	return docs, nil
}
