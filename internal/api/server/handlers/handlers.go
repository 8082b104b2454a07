package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/export"
	"github.com/bz888/scribe/internal/logger"
	"github.com/bz888/scribe/internal/prompt"
	"github.com/bz888/scribe/internal/session"
	"github.com/bz888/scribe/internal/stats"
	"github.com/bz888/scribe/internal/templates"
)

// ControllerInterface is implemented by *session.Controller.
type ControllerInterface interface {
	Send(ctx context.Context, store *chat.Store, in session.SendInput) (chat.Message, error)
	SendImage(ctx context.Context, store *chat.Store, in session.ImageInput) ([]chat.Message, error)
	Rework(ctx context.Context, store *chat.Store, index int, action session.Rework, opts prompt.Options) (chat.Message, error)
	GenerateFromTemplate(ctx context.Context, store *chat.Store, in session.TemplateInput) (chat.Message, error)
	Clear(store *chat.Store)
	Export(store *chat.Store, format export.Format) ([]byte, error)
	WordCount(store *chat.Store) stats.Counts
}

// Availability reports which generation capabilities are configured.
type Availability interface {
	TextAvailable() bool
	ImageAvailable() bool
}

type Handler struct {
	sessions   *session.Registry
	controller ControllerInterface
	catalog    *templates.Catalog
	backends   Availability
	log        *logger.Logger
}

func NewHandler(sessions *session.Registry, controller ControllerInterface, catalog *templates.Catalog, backends Availability) *Handler {
	return &Handler{
		sessions:   sessions,
		controller: controller,
		catalog:    catalog,
		backends:   backends,
		log:        logger.NewLogger("handler"),
	}
}

func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.log.Info("session created: ", s.ID)
	writeJSON(w, http.StatusCreated, SessionResponse{ID: s.ID, CreatedAt: s.CreatedAt})
}

func (h *Handler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}
	h.sessions.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var resp MessagesResponse
	s.Do(func(store *chat.Store) error {
		resp.Messages = toMessages(store.List(), 0)
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Do(func(store *chat.Store) error {
		h.controller.Clear(store)
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ChatRequest
	if !decode(w, r, &req) {
		return
	}

	var resp MessagesResponse
	err := s.Do(func(store *chat.Store) error {
		start := store.Len()
		if _, err := h.controller.Send(r.Context(), store, session.SendInput{
			Text:      req.Text,
			Options:   req.Options(),
			Reference: req.Reference,
		}); err != nil {
			return err
		}
		resp.Messages = toMessages(store.List()[start:], start)
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ImageHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ImageRequest
	if !decode(w, r, &req) {
		return
	}

	var resp MessagesResponse
	err := s.Do(func(store *chat.Store) error {
		start := store.Len()
		if _, err := h.controller.SendImage(r.Context(), store, session.ImageInput{
			Prompt: req.Prompt,
			Width:  req.Width,
			Height: req.Height,
		}); err != nil {
			return err
		}
		resp.Messages = toMessages(store.List()[start:], start)
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReworkHandler serves regenerate, expand and shorten on one message.
func (h *Handler) ReworkHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message index must be a number"})
		return
	}
	action, err := session.ParseRework(r.PathValue("action"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	var req ReworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	var msg chat.Message
	err = s.Do(func(store *chat.Store) error {
		var err error
		msg, err = h.controller.Rework(r.Context(), store, index, action, prompt.Options{
			Tone:   req.Tone,
			Style:  req.Style,
			Format: req.Format,
		})
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessage(index, msg))
}

func (h *Handler) TemplateHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TemplateRequest
	if !decode(w, r, &req) {
		return
	}

	var resp MessagesResponse
	err := s.Do(func(store *chat.Store) error {
		start := store.Len()
		if _, err := h.controller.GenerateFromTemplate(r.Context(), store, session.TemplateInput{
			Category: req.Category,
			Name:     req.Name,
			Values:   req.Values,
			Options:  prompt.Options{Tone: req.Tone, Style: req.Style, Format: req.Format},
		}); err != nil {
			return err
		}
		resp.Messages = toMessages(store.List()[start:], start)
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var doc []byte
	err = s.Do(func(store *chat.Store) error {
		doc, err = h.controller.Export(store, format)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var resp StatsResponse
	s.Do(func(store *chat.Store) error {
		counts := h.controller.WordCount(store)
		resp = StatsResponse{Messages: store.Len(), Words: counts.Words, Chars: counts.Chars}
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return s, true
}

// writeError maps guard errors to 4xx. Backend failures never reach here;
// they are stored as warning turns.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var incomplete *session.IncompleteTemplateError
	var missing *templates.MissingPlaceholderError

	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Missing: incomplete.Missing})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Missing: []string{missing.Key}})
	case errors.Is(err, chat.ErrIndexOutOfRange), errors.Is(err, session.ErrUnknownTemplate):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, chat.ErrNotReplaceable):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrEmptyInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.log.Error("request failed: ", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func toMessages(msgs []chat.Message, offset int) []Message {
	out := make([]Message, 0, len(msgs))
	for i, m := range msgs {
		out = append(out, toMessage(offset+i, m))
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.NewLogger("handler").Error("Failed to encode response: ", err)
	}
}
