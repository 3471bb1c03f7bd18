package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// ErrNotPDF is returned when a blob handed to a VerifyingSaver is not a PDF.
var ErrNotPDF = errors.New("download: response is not a PDF document")

// VerifyingSaver checks the blob with pdfcpu before delegating to Next, so a
// truncated or non-PDF response surfaces as a save failure instead of a
// broken file on disk.
type VerifyingSaver struct {
	Next   Saver
	Logger *zap.Logger
}

// NewVerifyingSaver wraps next.
func NewVerifyingSaver(next Saver, logger *zap.Logger) *VerifyingSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerifyingSaver{Next: next, Logger: logger}
}

// SaveBlobAs implements Saver.
func (v *VerifyingSaver) SaveBlobAs(ctx context.Context, data []byte, filename string) error {
	if v.Next == nil {
		return errors.New("download: verifying saver has no target")
	}
	pages, err := Inspect(data)
	if err != nil {
		return err
	}
	logger := v.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("pdf verified", zap.String("filename", filename), zap.Int("pages", pages))
	return v.Next.SaveBlobAs(ctx, data, filename)
}

// Inspect validates data as a PDF and returns its page count.
func Inspect(data []byte) (int, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return 0, ErrNotPDF
	}
	if err := pdfapi.Validate(bytes.NewReader(data), nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	pages, err := pdfapi.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return pages, nil
}
