package handlers

import (
	"net/http"

	"github.com/bz888/scribe/internal/prompt"
)

func (h *Handler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: h.catalog.Categories()})
}

// CategoryHandler lists a category's templates in catalog order. An unknown
// category is reported as 404 rather than an empty list.
func (h *Handler) CategoryHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("category")
	names := h.catalog.Names(name)
	if len(names) == 0 {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown category " + name})
		return
	}

	resp := CategoryResponse{Name: name}
	for _, n := range names {
		resp.Templates = append(resp.Templates, h.catalog.Get(name, n))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) OptionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OptionsResponse{
		Tones:   prompt.Tones,
		Styles:  prompt.Styles,
		Formats: prompt.Formats,
	})
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	status := StatusResponse{
		ServerWorking: true,
		Sessions:      h.sessions.Len(),
	}
	if h.backends != nil {
		status.TextAvailable = h.backends.TextAvailable()
		status.ImageAvailable = h.backends.ImageAvailable()
	}
	writeJSON(w, http.StatusOK, status)
}
