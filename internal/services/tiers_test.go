package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pagecurl-labs/flipbookd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(log *callLog, pages int) (*TierManager, *fakeArtifacts, *fakeRecords) {
	artifacts := newFakeArtifacts(log)
	records := newFakeRecords(log)
	pipeline := NewPipeline(artifacts, records, &fakeRasterizer{pages: pages}, nil)
	return NewTierManager(artifacts, records, pipeline, nil), artifacts, records
}

// seedConverted stores a one-page flipbook record plus its backing objects.
func seedConverted(artifacts *fakeArtifacts, records *fakeRecords, tier domain.Tier, bookID string) domain.Flipbook {
	pageURL := "https://blobs.test/" + domain.PageObjectPath(bookID, 1)
	fb := domain.Flipbook{
		MainCategory:     "Sports",
		Subcategory:      "Tennis",
		OriginalFileName: "report.pdf",
		PDFPathInStorage: domain.OriginalObjectPath(bookID, "report.pdf"),
		ImagesPathPrefix: domain.PageObjectPrefix(bookID),
		PageImageURLs:    []string{pageURL},
		ThumbnailURL:     pageURL,
		CreatedAt:        time.Now().Add(-time.Hour),
	}
	if tier == domain.TierPending {
		fb.OwnerUID = "user-7"
	}
	records.seed(tier, bookID, fb)
	artifacts.seed(fb.PDFPathInStorage, []byte("%PDF-1.4"))
	artifacts.seed(domain.PageObjectPath(bookID, 1), []byte("jpeg-1"))
	return fb
}

func TestApproveMovesPendingToPublic(t *testing.T) {
	log := &callLog{}
	manager, artifacts, records := newManager(log, 1)
	seedConverted(artifacts, records, domain.TierPending, "b1")

	require.NoError(t, manager.Approve(context.Background(), "b1"))

	fb, ok := records.get(domain.TierPublic, "b1")
	require.True(t, ok)
	assert.Empty(t, fb.OwnerUID)
	assert.Equal(t, "Sports", fb.MainCategory)
	assert.Equal(t, 0, records.count(domain.TierPending))
}

func TestApproveValidatesID(t *testing.T) {
	log := &callLog{}
	manager, _, _ := newManager(log, 1)

	err := manager.Approve(context.Background(), "")

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Missing flipbook ID.", derr.Message)
	assert.Empty(t, log.list())
}

func TestApproveMissingPending(t *testing.T) {
	log := &callLog{}
	manager, _, records := newManager(log, 1)

	err := manager.Approve(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 0, records.count(domain.TierPublic))
}

func TestDeleteRemovesArtifactsBeforeRecord(t *testing.T) {
	log := &callLog{}
	manager, artifacts, records := newManager(log, 1)
	fb := seedConverted(artifacts, records, domain.TierPublic, "b1")

	require.NoError(t, manager.Delete(context.Background(), domain.TierPublic, "b1"))

	assert.Equal(t, []string{
		"recordGet public/b1",
		"deleteAll " + fb.ImagesPathPrefix,
		"delete " + fb.PDFPathInStorage,
		"recordDelete public/b1",
	}, log.list())
	assert.Equal(t, 0, records.count(domain.TierPublic))
	assert.False(t, artifacts.stored(fb.PDFPathInStorage))
	assert.False(t, artifacts.stored(domain.PageObjectPath("b1", 1)))
}

func TestDeleteMissingRecord(t *testing.T) {
	log := &callLog{}
	manager, _, _ := newManager(log, 1)

	err := manager.Delete(context.Background(), domain.TierPublic, "ghost")

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestDeleteToleratesMissingOriginal(t *testing.T) {
	log := &callLog{}
	manager, artifacts, records := newManager(log, 1)
	fb := seedConverted(artifacts, records, domain.TierPending, "b1")
	artifacts.missing[fb.PDFPathInStorage] = true

	require.NoError(t, manager.Delete(context.Background(), domain.TierPending, "b1"))
	assert.Equal(t, 0, records.count(domain.TierPending))
}

func TestDeleteStopsOnBlobFailure(t *testing.T) {
	log := &callLog{}
	manager, artifacts, records := newManager(log, 1)
	seedConverted(artifacts, records, domain.TierPublic, "b1")
	artifacts.deleteAllErr = domain.StorageError("failed to list objects", errors.New("backend unavailable"))

	err := manager.Delete(context.Background(), domain.TierPublic, "b1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete page images")
	// The record survives so the flipbook stays discoverable for a retry.
	assert.Equal(t, 1, records.count(domain.TierPublic))
}

func TestReplaceRefreshesArtifactFields(t *testing.T) {
	log := &callLog{}
	manager, artifacts, records := newManager(log, 2)
	old := seedConverted(artifacts, records, domain.TierPending, "b1")

	err := manager.Replace(context.Background(), "b1", "user-7", "updated.pdf", "application/pdf", []byte("%PDF-1.5"))
	require.NoError(t, err)

	fb, ok := records.get(domain.TierPending, "b1")
	require.True(t, ok)
	assert.Equal(t, "updated.pdf", fb.OriginalFileName)
	assert.Equal(t, domain.OriginalObjectPath("b1", "updated.pdf"), fb.PDFPathInStorage)
	require.Len(t, fb.PageImageURLs, 2)
	assert.Equal(t, fb.PageImageURLs[0], fb.ThumbnailURL)
	assert.True(t, fb.CreatedAt.After(old.CreatedAt))

	// Identity fields are never part of the update.
	assert.Equal(t, "Sports", fb.MainCategory)
	assert.Equal(t, "Tennis", fb.Subcategory)
	assert.Equal(t, "user-7", fb.OwnerUID)
	for field := range records.lastUpdate {
		assert.NotContains(t, []string{"mainCategory", "subcategory", "uid"}, field)
	}

	// Old artifacts are gone, replaced under the same bookId.
	assert.False(t, artifacts.stored(old.PDFPathInStorage))
	assert.True(t, artifacts.stored(domain.OriginalObjectPath("b1", "updated.pdf")))
	assert.True(t, artifacts.stored(domain.PageObjectPath("b1", 2)))
}

func TestReplaceValidation(t *testing.T) {
	tests := []struct {
		name    string
		bookID  string
		uid     string
		file    string
		data    []byte
		message string
	}{
		{"missing book id", "", "user-7", "a.pdf", []byte("x"), "Missing flipbook ID."},
		{"missing uid", "b1", "", "a.pdf", []byte("x"), "Missing user ID."},
		{"missing file", "b1", "user-7", "a.pdf", nil, "No PDF file uploaded."},
		{"missing file name", "b1", "user-7", "", []byte("x"), "No PDF file uploaded."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log := &callLog{}
			manager, _, _ := newManager(log, 1)

			err := manager.Replace(context.Background(), tc.bookID, tc.uid, tc.file, "application/pdf", tc.data)

			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			var derr *domain.DomainError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tc.message, derr.Message)
			assert.Empty(t, log.list())
		})
	}
}

func TestReplaceMissingRecord(t *testing.T) {
	log := &callLog{}
	manager, _, _ := newManager(log, 1)

	err := manager.Replace(context.Background(), "ghost", "user-7", "a.pdf", "application/pdf", []byte("x"))

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestReplaceConversionFailureSkipsUpdate(t *testing.T) {
	log := &callLog{}
	artifacts := newFakeArtifacts(log)
	records := newFakeRecords(log)
	rasterizer := &fakeRasterizer{openErr: domain.DecodeError("failed to validate PDF", errors.New("bad xref"))}
	pipeline := NewPipeline(artifacts, records, rasterizer, nil)
	manager := NewTierManager(artifacts, records, pipeline, nil)
	old := seedConverted(artifacts, records, domain.TierPending, "b1")

	err := manager.Replace(context.Background(), "b1", "user-7", "broken.pdf", "application/pdf", []byte("not a pdf"))

	require.Error(t, err)
	var updates int
	for _, call := range log.list() {
		if strings.HasPrefix(call, "recordUpdate ") {
			updates++
		}
	}
	assert.Equal(t, 0, updates)
	// The record still points at the purged artifacts; no rollback happens.
	fb, ok := records.get(domain.TierPending, "b1")
	require.True(t, ok)
	assert.Equal(t, old.OriginalFileName, fb.OriginalFileName)
	assert.False(t, artifacts.stored(old.PDFPathInStorage))
}
