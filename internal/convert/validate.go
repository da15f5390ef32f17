package convert

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var ErrInvalidPDF = errors.New("invalid pdf")

// ValidatePDF parses data as a PDF and returns its page count. A document
// without pages is rejected.
func ValidatePDF(data []byte) (pages int, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, fmt.Errorf("%w: missing header", ErrInvalidPDF)
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	n := r.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return n, nil
}
