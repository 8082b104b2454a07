package server

import (
	"net/http"

	"github.com/bz888/scribe/internal/api/server/handlers"
)

func registerRoutes(mux *http.ServeMux, handler *handlers.Handler) {
	mux.HandleFunc("GET /status", handler.StatusHandler)
	mux.HandleFunc("GET /options", handler.OptionsHandler)
	mux.HandleFunc("GET /templates", handler.CategoriesHandler)
	mux.HandleFunc("GET /templates/{category}", handler.CategoryHandler)

	mux.HandleFunc("POST /sessions", handler.CreateSessionHandler)
	mux.HandleFunc("DELETE /sessions/{id}", handler.DeleteSessionHandler)
	mux.HandleFunc("GET /sessions/{id}/messages", handler.MessagesHandler)
	mux.HandleFunc("DELETE /sessions/{id}/messages", handler.ClearHandler)
	mux.HandleFunc("POST /sessions/{id}/chat", handler.ChatHandler)
	mux.HandleFunc("POST /sessions/{id}/images", handler.ImageHandler)
	mux.HandleFunc("POST /sessions/{id}/messages/{index}/{action}", handler.ReworkHandler)
	mux.HandleFunc("POST /sessions/{id}/template", handler.TemplateHandler)
	mux.HandleFunc("GET /sessions/{id}/export", handler.ExportHandler)
	mux.HandleFunc("GET /sessions/{id}/stats", handler.StatsHandler)
}

// NewRouter returns the API routes, with request logging.
func NewRouter(handler *handlers.Handler) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, handler)
	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LocalLogger.Info(r.Method, " ", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
