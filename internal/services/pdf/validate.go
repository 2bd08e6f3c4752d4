package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ValidatePDF checks that the bytes parse as a well-formed PDF with at
// least one page. Generated reports are validated before they are
// written to disk or mailed.
func (s *Service) ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty PDF")
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("PDF validation failed: %w", err)
	}

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("failed to read PDF: %w", err)
	}
	if pdfCtx.PageCount < 1 {
		return fmt.Errorf("PDF has no pages")
	}
	return nil
}
