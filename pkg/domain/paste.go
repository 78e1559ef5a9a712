package domain

import (
	"encoding/json"
)

type Paste struct {
	ID            string        `json:"id"`
	URL           string        `json:"url"`
	Content       string        `json:"content"`
	Password      string        `json:"password,omitempty"`
	DatePublished int64         `json:"date_published"`
	DateEdited    int64         `json:"date_edited"`
	Metadata      PasteMetadata `json:"metadata"`
}

type PasteMetadata struct {
	Owner        string `json:"owner"`
	ViewPassword string `json:"view_password,omitempty"`
}

// PublicPaste is the read-side projection of a Paste. The password hash
// never leaves the engine through this type.
type PublicPaste struct {
	URL           string        `json:"url"`
	Content       string        `json:"content"`
	DatePublished int64         `json:"date_published"`
	DateEdited    int64         `json:"date_edited"`
	Metadata      PasteMetadata `json:"metadata"`
}

func (p *Paste) Public() PublicPaste {
	return PublicPaste{
		URL:           p.URL,
		Content:       p.Content,
		DatePublished: p.DatePublished,
		DateEdited:    p.DateEdited,
		Metadata:      p.Metadata,
	}
}

type PasteCreate struct {
	URL      string `json:"url"`
	Content  string `json:"content"`
	Password string `json:"password"`
}

type PasteClone struct {
	URL      string `json:"url"`
	Source   string `json:"source"`
	Password string `json:"password"`
}

type PasteDelete struct {
	Password string `json:"password"`
}

type PasteEdit struct {
	Password    string `json:"password"`
	NewContent  string `json:"new_content"`
	NewURL      string `json:"new_url"`
	NewPassword string `json:"new_password"`
}

type PasteEditMetadata struct {
	Password string        `json:"password"`
	Metadata PasteMetadata `json:"metadata"`
}

// Document is a generic namespaced CRUD record. Uniqueness and permission
// checks are the caller's responsibility.
type Document struct {
	ID        string          `json:"id"`
	Namespace string          `json:"namespace"`
	Content   string          `json:"content"`
	Timestamp int64           `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata"`
}

// DefaultReturn is the response envelope used by the HTTP layer.
type DefaultReturn[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Payload T      `json:"payload"`
}
