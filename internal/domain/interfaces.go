package domain

import "context"

// ArtifactStore persists binary artifacts (original PDFs, page images) in a
// blob store and reports the public URL of each stored object.
type ArtifactStore interface {
	// Upload writes data under the given object name and returns its public URL.
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)

	// Delete removes a single object. It returns ErrBlobNotFound when the
	// object is already absent.
	Delete(ctx context.Context, object string) error

	// DeleteAll removes every object under the given prefix.
	DeleteAll(ctx context.Context, prefix string) error
}

// RecordStore persists flipbook records across the two visibility tiers.
type RecordStore interface {
	// Get loads a record by ID, returning a not-found error when absent.
	Get(ctx context.Context, tier Tier, bookID string) (*Flipbook, error)

	// Put creates or overwrites a record.
	Put(ctx context.Context, tier Tier, bookID string, fb *Flipbook) error

	// Update applies a partial field update to an existing record. A nil
	// value removes the field.
	Update(ctx context.Context, tier Tier, bookID string, fields map[string]any) error

	// Delete removes a record.
	Delete(ctx context.Context, tier Tier, bookID string) error

	// Promote atomically moves a record from the pending tier to the public
	// tier, stripping its owner. The record never exists in both tiers and
	// is never lost, even under concurrent promotion.
	Promote(ctx context.Context, bookID string) error

	// List returns the records of a tier matching the filter.
	List(ctx context.Context, tier Tier, filter RecordFilter) ([]FlipbookEntry, error)
}

// Rasterizer turns an uploaded document into a sequence of page images.
type Rasterizer interface {
	// Open decodes the document bytes and prepares them for page rendering.
	Open(data []byte) (PageSequence, error)
}

// PageSequence renders the pages of one open document, one page at a time.
// Callers must Close it when done.
type PageSequence interface {
	PageCount() int

	// RenderPage renders the 1-based page n to an encoded image.
	RenderPage(n int) (PageImage, error)

	Close() error
}
