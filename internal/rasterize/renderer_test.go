package rasterize

import (
	"testing"

	"github.com/pagecurl-labs/flipbookd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRendererDefaults(t *testing.T) {
	tests := []struct {
		name        string
		scale       float64
		quality     int
		wantScale   float64
		wantQuality int
	}{
		{"zero values", 0, 0, 1.5, 85},
		{"negative scale", -1, 101, 1.5, 85},
		{"explicit values", 2.0, 70, 2.0, 70},
		{"quality lower bound", 1.5, 1, 1.5, 1},
		{"quality upper bound", 1.5, 100, 1.5, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRenderer(tc.scale, tc.quality)
			assert.Equal(t, tc.wantScale, r.Scale)
			assert.Equal(t, tc.wantQuality, r.Quality)
		})
	}
}

func TestOpenEmptyDocument(t *testing.T) {
	r := NewRenderer(0, 0)

	_, err := r.Open(nil)

	require.Error(t, err)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrorTypeDecode, derr.Type)
	assert.Equal(t, "document is empty", derr.Message)
}

func TestOpenRejectsGarbage(t *testing.T) {
	r := NewRenderer(0, 0)

	_, err := r.Open([]byte("definitely not a pdf"))

	require.Error(t, err)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrorTypeDecode, derr.Type)
}

func TestOpenRejectsTruncatedHeader(t *testing.T) {
	r := NewRenderer(0, 0)

	// A bare header with no body, xref table or trailer.
	_, err := r.Open([]byte("%PDF-1.4\n"))

	require.Error(t, err)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrorTypeDecode, derr.Type)
}
