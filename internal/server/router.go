package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates the API router with all routes configured. No timeout
// middleware is installed: the processing stream stays open for the full
// length of a conversion.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload-pdf", h.UploadPDF)
		r.Post("/upload-team-pdf", h.UploadTeamPDF)
		r.Get("/process-stream/{jobId}", h.ProcessStream)
		r.Post("/update-team-pdf/{bookId}", h.UpdateTeamPDF)
		r.Delete("/delete-flipbook", h.DeleteFlipbook)
		r.Delete("/delete-team-flipbook", h.DeleteTeamFlipbook)
		r.Post("/approve-flipbook", h.ApproveFlipbook)
		r.Get("/flipbooks", h.ListFlipbooks)
		r.Get("/team-flipbooks", h.ListTeamFlipbooks)
	})

	return r
}
