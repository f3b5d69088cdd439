package server

import "time"

// These structs define the JSON payloads for the upload, streaming and
// management endpoints.

// UploadResponse carries the job token a client uses to open its
// processing stream.
type UploadResponse struct {
	JobID string `json:"jobId"`
}

// TargetRequest identifies the flipbook a delete or approve operation targets.
type TargetRequest struct {
	ID string `json:"id"`
}

// StatusResponse acknowledges a successful management operation.
type StatusResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// FlipbookSummary is one element of a listing response.
type FlipbookSummary struct {
	BookID           string    `json:"bookId"`
	MainCategory     string    `json:"mainCategory"`
	Subcategory      string    `json:"subcategory"`
	OriginalFileName string    `json:"originalFileName"`
	PageImageURLs    []string  `json:"pageImageUrls"`
	ThumbnailURL     string    `json:"thumbnailUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	OwnerUID         string    `json:"uid,omitempty"`
}
