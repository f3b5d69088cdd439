package domain

import "fmt"

const (
	sourcePDFFolder       = "source-pdfs"
	processedImagesFolder = "processed-images"
)

// OriginalObjectPath is the blob object name of an uploaded source PDF.
func OriginalObjectPath(bookID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", sourcePDFFolder, bookID, fileName)
}

// PageObjectPrefix is the blob prefix under which a flipbook's page images live.
func PageObjectPrefix(bookID string) string {
	return fmt.Sprintf("%s/%s/", processedImagesFolder, bookID)
}

// PageObjectPath is the blob object name of one rendered page image.
func PageObjectPath(bookID string, page int) string {
	return fmt.Sprintf("%spage-%d.jpg", PageObjectPrefix(bookID), page)
}
