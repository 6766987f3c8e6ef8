package encoder

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
)

var supportedMediaTypes = map[string]struct{}{
	MediaTypePDF:  {},
	MediaTypeJPEG: {},
	MediaTypePNG:  {},
}

// DetectMediaType trusts the declared type unless it is missing or generic,
// in which case the content is sniffed.
func DetectMediaType(declared string, data []byte) string {
	mt := normalizeMediaType(declared)
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if len(data) == 0 {
		return mt
	}
	return normalizeMediaType(mimetype.Detect(data).String())
}

// IsSupported reports whether mediaType is an accepted attachment type.
func IsSupported(mediaType string) bool {
	_, ok := supportedMediaTypes[normalizeMediaType(mediaType)]
	return ok
}

// IsPDF reports whether mediaType is a PDF.
func IsPDF(mediaType string) bool {
	return normalizeMediaType(mediaType) == MediaTypePDF
}

// PageCount returns the number of pages of a PDF document.
func PageCount(data []byte) (n int, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("read pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return r.NumPage(), nil
}

func normalizeMediaType(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" || mt == "image/pjpeg" {
		return MediaTypeJPEG
	}
	return mt
}
