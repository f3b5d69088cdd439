package domain

import "time"

// Tier identifies which of the two record collections a flipbook lives in.
type Tier string

const (
	// TierPublic holds approved flipbooks visible to everyone.
	TierPublic Tier = "public"
	// TierPending holds team uploads awaiting moderator approval.
	TierPending Tier = "pending"
)

// Flipbook is the persisted record describing one converted document.
// The document ID in the record store is the bookId.
type Flipbook struct {
	MainCategory     string    `firestore:"mainCategory"`
	Subcategory      string    `firestore:"subcategory"`
	OriginalFileName string    `firestore:"originalFileName"`
	PDFPathInStorage string    `firestore:"pdfPathInStorage"`
	ImagesPathPrefix string    `firestore:"imagesPathPrefix"`
	PageImageURLs    []string  `firestore:"pageImageUrls"`
	ThumbnailURL     string    `firestore:"thumbnailUrl,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt"`
	// OwnerUID is set only on pending-tier records and is stripped on approval.
	OwnerUID string `firestore:"uid,omitempty"`
}

// FlipbookEntry pairs a record with its document ID, for listings.
type FlipbookEntry struct {
	BookID   string
	Flipbook Flipbook
}

// RecordFilter narrows a tier listing. Empty fields match everything.
type RecordFilter struct {
	MainCategory string
	Subcategory  string
	OwnerUID     string
}

// Job is the unit of queued work between an upload request and its
// processing stream. Jobs live in memory only and are consumed exactly once.
type Job struct {
	Token        string
	FileName     string
	ContentType  string
	Data         []byte
	Tier         Tier
	OwnerUID     string
	MainCategory string
	Subcategory  string
	SubmittedAt  time.Time
}

// PageImage is one rendered page, already encoded as JPEG.
type PageImage struct {
	Number int // 1-based page number
	Data   []byte
	Width  int
	Height int
}
