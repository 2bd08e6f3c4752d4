package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestValidatePDF(t *testing.T) {
	service := NewService(arbor.NewLogger())

	pdfBytes, err := service.ConvertMarkdownToPDF("# Weekly Report\n\nSome rounds.", "Weekly Report")
	require.NoError(t, err)

	assert.NoError(t, service.ValidatePDF(pdfBytes))
}

func TestValidatePDFRejectsGarbage(t *testing.T) {
	service := NewService(arbor.NewLogger())

	assert.Error(t, service.ValidatePDF(nil))
	assert.Error(t, service.ValidatePDF([]byte("not a pdf")))
	assert.Error(t, service.ValidatePDF([]byte("%PDF-1.7 truncated")))
}
