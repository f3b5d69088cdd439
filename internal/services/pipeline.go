package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
)

// Pipeline drives one claimed job through upload, rasterization and record
// persistence, reporting progress events along the way.
type Pipeline struct {
	artifacts  domain.ArtifactStore
	records    domain.RecordStore
	rasterizer domain.Rasterizer
	logger     *slog.Logger
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(artifacts domain.ArtifactStore, records domain.RecordStore, rasterizer domain.Rasterizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		artifacts:  artifacts,
		records:    records,
		rasterizer: rasterizer,
		logger:     logger,
	}
}

// conversion carries the artifact outputs of one convert run.
type conversion struct {
	OriginalPath string
	PageURLs     []string
	ThumbnailURL string
}

// Run processes a claimed job in the background and returns its progress
// channel. The channel carries log and progress events followed by exactly
// one terminal done or error event, after which it is closed. The caller
// must drain the channel.
func (p *Pipeline) Run(ctx context.Context, job domain.Job) <-chan domain.Event {
	events := make(chan domain.Event)
	go func() {
		defer close(events)
		p.process(ctx, job, events)
	}()
	return events
}

func (p *Pipeline) process(ctx context.Context, job domain.Job, events chan<- domain.Event) {
	bookID := uuid.New().String()
	logCtx := p.logger.With("bookId", bookID, "fileName", job.FileName, "tier", string(job.Tier))
	logCtx.Info("Starting conversion.")

	result, err := p.convert(ctx, bookID, job, events)
	if err != nil {
		p.fail(events, logCtx, err)
		return
	}

	record := &domain.Flipbook{
		MainCategory:     job.MainCategory,
		Subcategory:      job.Subcategory,
		OriginalFileName: job.FileName,
		PDFPathInStorage: result.OriginalPath,
		ImagesPathPrefix: domain.PageObjectPrefix(bookID),
		PageImageURLs:    result.PageURLs,
		ThumbnailURL:     result.ThumbnailURL,
		CreatedAt:        time.Now(),
	}
	if job.Tier == domain.TierPending {
		record.OwnerUID = job.OwnerUID
	}

	if err := p.records.Put(ctx, job.Tier, bookID, record); err != nil {
		p.fail(events, logCtx, fmt.Errorf("failed to save flipbook record: %w", err))
		return
	}

	logCtx.Info("Conversion complete.", "pageCount", len(result.PageURLs))
	emit(events, domain.DoneEvent("Conversion complete."))
}

// convert realizes the upload and rasterization steps against bookID: the
// original document first, then every page image in page order. It emits one
// log event and one progress event per page when events is non-nil. The
// record is left untouched; callers persist it themselves.
func (p *Pipeline) convert(ctx context.Context, bookID string, job domain.Job, events chan<- domain.Event) (*conversion, error) {
	originalPath := domain.OriginalObjectPath(bookID, job.FileName)
	if _, err := p.artifacts.Upload(ctx, originalPath, job.ContentType, job.Data); err != nil {
		return nil, fmt.Errorf("failed to upload original PDF: %w", err)
	}
	emit(events, domain.LogEvent("PDF uploaded. Starting page conversion."))

	doc, err := p.rasterizer.Open(job.Data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	pageURLs := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page, err := doc.RenderPage(i)
		if err != nil {
			return nil, err
		}

		url, err := p.artifacts.Upload(ctx, domain.PageObjectPath(bookID, i), "image/jpeg", page.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to upload page %d: %w", i, err)
		}
		pageURLs = append(pageURLs, url)
		emit(events, domain.ProgressEvent(i, pageCount))
	}

	result := &conversion{OriginalPath: originalPath, PageURLs: pageURLs}
	if len(pageURLs) > 0 {
		result.ThumbnailURL = pageURLs[0]
	}
	return result, nil
}

func (p *Pipeline) fail(events chan<- domain.Event, logCtx *slog.Logger, err error) {
	logCtx.Error("Conversion failed.", "error", err)
	emit(events, domain.ErrorEvent(err.Error()))
}

// emit sends an event when the channel is present. Replace runs convert
// without a listener, so sends are skipped entirely rather than buffered.
func emit(events chan<- domain.Event, e domain.Event) {
	if events != nil {
		events <- e
	}
}
