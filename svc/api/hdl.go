package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/text/unicode/norm"

	"github.com/hkauso/pastemd/cfg"
	"github.com/hkauso/pastemd/pkg/domain"
	"github.com/hkauso/pastemd/svc/svc"
)

const maxRequestSize = 512 * 1024

type Hdl struct {
	paste *svc.Paste
	docs  *svc.Documents
	cfg   *cfg.Cfg
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

func writeErr(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domain.Status(err))
	json.NewEncoder(w).Encode(domain.ToReturn(err))
}

func writeOK[T any](w http.ResponseWriter, message string, payload T) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(domain.DefaultReturn[T]{
		Success: true,
		Message: message,
		Payload: payload,
	})
}

// CreatePaste handles POST /api/new.
func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	var req domain.PasteCreate
	if err := decode(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("invalid create request")
		writeErr(w, domain.ErrValue)
		return
	}
	req.Content = norm.NFC.String(req.Content)
	password, paste, err := h.paste.Create(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("create failed")
		writeErr(w, err)
		return
	}
	log.Info().
		Str("url", paste.URL).
		Bool("password_generated", req.Password == "").
		Msg("paste created")
	writeOK(w, "Paste created", struct {
		Password string        `json:"password"`
		Paste    *domain.Paste `json:"paste"`
	}{password, paste})
}

// ClonePaste handles POST /api/clone.
func (h *Hdl) ClonePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	var req domain.PasteClone
	if err := decode(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("invalid clone request")
		writeErr(w, domain.ErrValue)
		return
	}
	password, paste, err := h.paste.Clone(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("source", req.Source).Msg("clone failed")
		writeErr(w, err)
		return
	}
	writeOK(w, "Paste cloned", struct {
		Password string        `json:"password"`
		Paste    *domain.Paste `json:"paste"`
	}{password, paste})
}

// GetPaste handles GET /api/{url}. View-password-protected pastes are
// never served raw through this endpoint.
func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	url := chi.URLParam(r, "url")
	paste, err := h.paste.Read(r.Context(), url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("get failed")
		writeErr(w, err)
		return
	}
	if paste.Metadata.ViewPassword != "" {
		writeErr(w, domain.ErrOther)
		return
	}
	if err := h.paste.IncrementView(r.Context(), url, RequesterFrom(r.Context())); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("view count failed")
	}
	writeOK(w, "Paste exists", paste.Public())
}

// GetViewCount handles GET /api/{url}/views.
func (h *Hdl) GetViewCount(w http.ResponseWriter, r *http.Request) {
	url := chi.URLParam(r, "url")
	count, err := h.paste.GetViewCount(r.Context(), url)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("url", url).Msg("view count read failed")
		writeErr(w, err)
		return
	}
	writeOK(w, "Paste views", count)
}

// DeletePaste handles POST /api/{url}/delete.
func (h *Hdl) DeletePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	url := chi.URLParam(r, "url")
	var req domain.PasteDelete
	if err := decode(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("invalid delete request")
		writeErr(w, domain.ErrValue)
		return
	}
	if err := h.paste.Delete(r.Context(), url, req.Password); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("delete failed")
		writeErr(w, err)
		return
	}
	writeOK[any](w, "Paste deleted", nil)
}

// EditPaste handles POST /api/{url}/edit.
func (h *Hdl) EditPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	url := chi.URLParam(r, "url")
	var req domain.PasteEdit
	if err := decode(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("invalid edit request")
		writeErr(w, domain.ErrValue)
		return
	}
	req.NewContent = norm.NFC.String(req.NewContent)
	if err := h.paste.Edit(r.Context(), url, req, RequesterFrom(r.Context())); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("edit failed")
		writeErr(w, err)
		return
	}
	writeOK[any](w, "Paste updated", nil)
}

// EditPasteMetadata handles POST /api/{url}/metadata. When paste
// ownership is enabled the owner field always reflects the requester:
// an authenticated edit claims it, an anonymous edit clears it.
func (h *Hdl) EditPasteMetadata(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	url := chi.URLParam(r, "url")
	var req domain.PasteEditMetadata
	if err := decode(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("invalid metadata request")
		writeErr(w, domain.ErrValue)
		return
	}
	requester := RequesterFrom(r.Context())
	if h.cfg.PasteOwnership {
		if requester != nil {
			req.Metadata.Owner = requester.Username
		} else {
			req.Metadata.Owner = ""
		}
	}
	if err := h.paste.EditMetadata(r.Context(), url, req.Password, req.Metadata, requester); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("metadata edit failed")
		writeErr(w, err)
		return
	}
	writeOK[any](w, "Paste updated", nil)
}

// NotFound is the fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(domain.DefaultReturn[int]{
		Success: false,
		Message: "Path does not exist",
		Payload: http.StatusNotFound,
	})
}

// document handlers, mounted only when DOCUMENTS_ENABLED=true

func (h *Hdl) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req domain.Document
	if err := decode(w, r, &req); err != nil {
		writeErr(w, domain.ErrValue)
		return
	}
	req.Namespace = chi.URLParam(r, "namespace")
	doc, err := h.docs.Create(r.Context(), &req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, "Document created", doc)
}

func (h *Hdl) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "namespace"), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, "Document exists", doc)
}

func (h *Hdl) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context(), chi.URLParam(r, "namespace"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, "Documents listed", docs)
}

func (h *Hdl) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req domain.Document
	if err := decode(w, r, &req); err != nil {
		writeErr(w, domain.ErrValue)
		return
	}
	req.Namespace = chi.URLParam(r, "namespace")
	req.ID = chi.URLParam(r, "id")
	if err := h.docs.Update(r.Context(), &req); err != nil {
		writeErr(w, err)
		return
	}
	writeOK[any](w, "Document updated", nil)
}

func (h *Hdl) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Delete(r.Context(), chi.URLParam(r, "namespace"), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeOK[any](w, "Document deleted", nil)
}
