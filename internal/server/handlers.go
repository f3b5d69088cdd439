package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
	"github.com/pagecurl-labs/flipbookd/internal/jobs"
	"github.com/pagecurl-labs/flipbookd/internal/services"
)

// Handler serves the flipbook API: uploads, the processing stream, tier
// management and listings.
type Handler struct {
	registry       *jobs.Registry
	pipeline       *services.Pipeline
	tiers          *services.TierManager
	records        domain.RecordStore
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewHandler wires the handler's collaborators. maxUploadMB caps multipart
// parsing.
func NewHandler(registry *jobs.Registry, pipeline *services.Pipeline, tiers *services.TierManager, records domain.RecordStore, maxUploadMB int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry:       registry,
		pipeline:       pipeline,
		tiers:          tiers,
		records:        records,
		logger:         logger,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// UploadPDF handles POST /api/upload-pdf: submit a job targeting the public tier.
func (h *Handler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	h.submitUpload(w, r, domain.TierPublic)
}

// UploadTeamPDF handles POST /api/upload-team-pdf: submit a job targeting the
// pending tier. Requires the uploader's uid.
func (h *Handler) UploadTeamPDF(w http.ResponseWriter, r *http.Request) {
	h.submitUpload(w, r, domain.TierPending)
}

func (h *Handler) submitUpload(w http.ResponseWriter, r *http.Request, tier domain.Tier) {
	fileName, contentType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	token, err := h.registry.Submit(domain.Job{
		FileName:     fileName,
		ContentType:  contentType,
		Data:         data,
		Tier:         tier,
		OwnerUID:     r.FormValue("uid"),
		MainCategory: r.FormValue("mainCategory"),
		Subcategory:  r.FormValue("subcategory"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("Job submitted.", "jobId", token, "fileName", fileName, "tier", string(tier))
	h.writeJSON(w, http.StatusOK, UploadResponse{JobID: token})
}

// ProcessStream handles GET /api/process-stream/{jobId}: claim the job and
// run its conversion, streaming progress until a terminal event.
func (h *Handler) ProcessStream(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	logCtx := h.logger.With("jobId", jobID)

	stream, err := newEventStream(w)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Streaming is not supported.")
		return
	}

	job, err := h.registry.Claim(jobID)
	if err != nil {
		logCtx.Warn("Stream opened for unknown job.")
		_ = stream.Send(domain.ErrorEvent("Job not found or already processed."))
		return
	}

	// A disconnecting client must not abort storage writes already under
	// way, so the run is detached from the request's cancellation.
	events := h.pipeline.Run(context.WithoutCancel(r.Context()), job)
	for event := range events {
		if err := stream.Send(event); err != nil {
			logCtx.Warn("Client went away. Conversion continues.", "error", err)
			for range events {
			}
			return
		}
	}
}

// UpdateTeamPDF handles POST /api/update-team-pdf/{bookId}: replace the
// document behind an existing pending flipbook.
func (h *Handler) UpdateTeamPDF(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")

	fileName, contentType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	if err := h.tiers.Replace(r.Context(), bookID, r.FormValue("uid"), fileName, contentType, data); err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, StatusResponse{Message: "Flipbook updated successfully."})
}

// DeleteFlipbook handles DELETE /api/delete-flipbook: remove a public
// flipbook and its artifacts.
func (h *Handler) DeleteFlipbook(w http.ResponseWriter, r *http.Request) {
	h.deleteFrom(w, r, domain.TierPublic)
}

// DeleteTeamFlipbook handles DELETE /api/delete-team-flipbook: remove a
// pending flipbook and its artifacts.
func (h *Handler) DeleteTeamFlipbook(w http.ResponseWriter, r *http.Request) {
	h.deleteFrom(w, r, domain.TierPending)
}

func (h *Handler) deleteFrom(w http.ResponseWriter, r *http.Request, tier domain.Tier) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.tiers.Delete(r.Context(), tier, req.ID); err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, StatusResponse{Message: "Flipbook deleted successfully."})
}

// ApproveFlipbook handles POST /api/approve-flipbook: promote a pending
// flipbook to the public tier. Promotion failures, including a pending
// record that has vanished, are reported as server errors.
func (h *Handler) ApproveFlipbook(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.tiers.Approve(r.Context(), req.ID); err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, errorMessage(err))
			return
		}
		h.writeError(w, http.StatusInternalServerError, errorMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, StatusResponse{Message: "Flipbook approved successfully."})
}

// ListFlipbooks handles GET /api/flipbooks: list public flipbooks, optionally
// filtered by category.
func (h *Handler) ListFlipbooks(w http.ResponseWriter, r *http.Request) {
	entries, err := h.records.List(r.Context(), domain.TierPublic, domain.RecordFilter{
		MainCategory: r.URL.Query().Get("mainCategory"),
		Subcategory:  r.URL.Query().Get("subcategory"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSummaries(entries))
}

// ListTeamFlipbooks handles GET /api/team-flipbooks: list an owner's pending
// flipbooks.
func (h *Handler) ListTeamFlipbooks(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		h.writeError(w, http.StatusBadRequest, "Missing user ID.")
		return
	}

	entries, err := h.records.List(r.Context(), domain.TierPending, domain.RecordFilter{OwnerUID: uid})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSummaries(entries))
}

// readUpload parses the multipart form and returns the uploaded document.
// On failure it writes the error response and reports ok=false.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (fileName, contentType string, data []byte, ok bool) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return "", "", nil, false
	}

	file, header, err := r.FormFile("pdfFile")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "No PDF file uploaded.")
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to read uploaded file.")
		return "", "", nil, false
	}

	contentType = header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	return header.Filename, contentType, data, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, errorMessage(err))
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, errorMessage(err))
	default:
		h.writeError(w, http.StatusInternalServerError, errorMessage(err))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response.", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Message: message})
}

// errorMessage extracts the user-facing message of a domain error, falling
// back to the full error text.
func errorMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

func toSummaries(entries []domain.FlipbookEntry) []FlipbookSummary {
	summaries := make([]FlipbookSummary, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, FlipbookSummary{
			BookID:           entry.BookID,
			MainCategory:     entry.Flipbook.MainCategory,
			Subcategory:      entry.Flipbook.Subcategory,
			OriginalFileName: entry.Flipbook.OriginalFileName,
			PageImageURLs:    entry.Flipbook.PageImageURLs,
			ThumbnailURL:     entry.Flipbook.ThumbnailURL,
			CreatedAt:        entry.Flipbook.CreatedAt,
			OwnerUID:         entry.Flipbook.OwnerUID,
		})
	}
	return summaries
}
