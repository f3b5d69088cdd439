package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginalObjectPath(t *testing.T) {
	path := OriginalObjectPath("book-123", "Annual Report.pdf")
	assert.Equal(t, "source-pdfs/book-123/Annual Report.pdf", path)
}

func TestPageObjectPath(t *testing.T) {
	assert.Equal(t, "processed-images/book-123/page-1.jpg", PageObjectPath("book-123", 1))
	assert.Equal(t, "processed-images/book-123/page-12.jpg", PageObjectPath("book-123", 12))
}

func TestPageObjectPathSharesPrefix(t *testing.T) {
	prefix := PageObjectPrefix("book-123")
	assert.Equal(t, "processed-images/book-123/", prefix)

	// A prefix delete must match every page object.
	for _, n := range []int{1, 2, 99} {
		assert.True(t, len(PageObjectPath("book-123", n)) > len(prefix))
		assert.Equal(t, prefix, PageObjectPath("book-123", n)[:len(prefix)])
	}
}
