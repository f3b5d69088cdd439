package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagecurl-labs/flipbookd/internal/domain"
)

// TierManager owns the record lifecycle across the two visibility tiers:
// approving pending flipbooks, deleting flipbooks with their artifacts, and
// replacing a pending flipbook's document in place.
type TierManager struct {
	artifacts domain.ArtifactStore
	records   domain.RecordStore
	pipeline  *Pipeline
	logger    *slog.Logger
}

// NewTierManager wires the tier manager's collaborators. The pipeline is
// reused for replace, which re-runs the conversion against an existing bookId.
func NewTierManager(artifacts domain.ArtifactStore, records domain.RecordStore, pipeline *Pipeline, logger *slog.Logger) *TierManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TierManager{
		artifacts: artifacts,
		records:   records,
		pipeline:  pipeline,
		logger:    logger,
	}
}

// Approve promotes a pending flipbook into the public tier. The promotion is
// a single record-store transaction: the record never exists in both tiers
// and never vanishes from both.
func (m *TierManager) Approve(ctx context.Context, bookID string) error {
	if bookID == "" {
		return domain.ValidationError("Missing flipbook ID.", nil)
	}

	logCtx := m.logger.With("bookId", bookID)
	if err := m.records.Promote(ctx, bookID); err != nil {
		logCtx.Error("Approval failed.", "error", err)
		return err
	}
	logCtx.Info("Flipbook approved.")
	return nil
}

// Delete removes a flipbook from the given tier along with all of its stored
// artifacts. Blob cleanup runs first so that a crash mid-way leaves a record
// pointing at partially deleted blobs rather than unreachable orphan blobs.
// An already-absent original is tolerated.
func (m *TierManager) Delete(ctx context.Context, tier domain.Tier, bookID string) error {
	if bookID == "" {
		return domain.ValidationError("Missing flipbook ID.", nil)
	}

	logCtx := m.logger.With("bookId", bookID, "tier", string(tier))

	fb, err := m.records.Get(ctx, tier, bookID)
	if err != nil {
		return err
	}

	if err := m.deleteArtifacts(ctx, logCtx, bookID, fb); err != nil {
		return err
	}

	if err := m.records.Delete(ctx, tier, bookID); err != nil {
		return err
	}
	logCtx.Info("Flipbook deleted.")
	return nil
}

// Replace swaps the document behind an existing pending flipbook: old
// artifacts are purged, the new file is converted under the same bookId, and
// the record's artifact fields and timestamp are refreshed in place. The
// categories and owner are preserved. If conversion fails after cleanup the
// record is left referencing deleted blobs; there is no rollback.
func (m *TierManager) Replace(ctx context.Context, bookID, ownerUID, fileName, contentType string, data []byte) error {
	if bookID == "" {
		return domain.ValidationError("Missing flipbook ID.", nil)
	}
	if ownerUID == "" {
		return domain.ValidationError("Missing user ID.", nil)
	}
	if len(data) == 0 || fileName == "" {
		return domain.ValidationError("No PDF file uploaded.", nil)
	}

	logCtx := m.logger.With("bookId", bookID)

	fb, err := m.records.Get(ctx, domain.TierPending, bookID)
	if err != nil {
		return err
	}

	if err := m.deleteArtifacts(ctx, logCtx, bookID, fb); err != nil {
		return err
	}

	job := domain.Job{
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
		Tier:        domain.TierPending,
		OwnerUID:    ownerUID,
	}
	result, err := m.pipeline.convert(ctx, bookID, job, nil)
	if err != nil {
		logCtx.Error("Replacement conversion failed.", "error", err)
		return err
	}

	fields := map[string]any{
		"originalFileName": fileName,
		"pdfPathInStorage": result.OriginalPath,
		"imagesPathPrefix": domain.PageObjectPrefix(bookID),
		"pageImageUrls":    result.PageURLs,
		"createdAt":        time.Now(),
	}
	if result.ThumbnailURL != "" {
		fields["thumbnailUrl"] = result.ThumbnailURL
	} else {
		fields["thumbnailUrl"] = nil
	}

	if err := m.records.Update(ctx, domain.TierPending, bookID, fields); err != nil {
		return err
	}
	logCtx.Info("Flipbook replaced.", "pageCount", len(result.PageURLs))
	return nil
}

// deleteArtifacts removes every page image under the flipbook's prefix, then
// the original document. A missing original is logged and skipped.
func (m *TierManager) deleteArtifacts(ctx context.Context, logCtx *slog.Logger, bookID string, fb *domain.Flipbook) error {
	prefix := fb.ImagesPathPrefix
	if prefix == "" {
		prefix = domain.PageObjectPrefix(bookID)
	}
	if err := m.artifacts.DeleteAll(ctx, prefix); err != nil {
		return fmt.Errorf("failed to delete page images: %w", err)
	}

	if fb.PDFPathInStorage == "" {
		return nil
	}
	if err := m.artifacts.Delete(ctx, fb.PDFPathInStorage); err != nil {
		if !errors.Is(err, domain.ErrBlobNotFound) {
			return fmt.Errorf("failed to delete original PDF: %w", err)
		}
		logCtx.Warn("Original PDF already absent. Continuing.", "object", fb.PDFPathInStorage)
	}
	return nil
}
