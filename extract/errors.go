package extract

import "errors"

var (
	// ErrUnsupportedFormat indicates a MIME type no extraction path handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoText indicates that neither structural extraction nor OCR
	// produced any usable text.
	ErrNoText = errors.New("no extractable text")
)
