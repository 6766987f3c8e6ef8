// Package encoder turns attachments into their transport form.
package encoder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/pavelanni/assessor/internal/model"
)

// ErrEncoding is matched by every *EncodingError.
var ErrEncoding = errors.New("attachment encoding failed")

// EncodingError reports that an attachment could not be read.
type EncodingError struct {
	Name string
	Err  error
}

func (e *EncodingError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("encode %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("encode attachment: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrEncoding) true for any EncodingError.
func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// Encode reads r to the end and returns its bytes as standard base64
// together with the declared media type. The bytes are not altered.
func Encode(ctx context.Context, r io.Reader, mimeType string) (model.EncodedFile, error) {
	if err := ctx.Err(); err != nil {
		return model.EncodedFile{}, &EncodingError{Err: err}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return model.EncodedFile{}, &EncodingError{Err: err}
	}
	return EncodeBytes(data, mimeType), nil
}

// EncodeAttachment encodes an attachment already held in memory.
func EncodeAttachment(a model.Attachment) model.EncodedFile {
	return EncodeBytes(a.Data, a.MediaType)
}

// EncodeBytes is the in-memory form of Encode.
func EncodeBytes(data []byte, mimeType string) model.EncodedFile {
	return model.EncodedFile{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}
}

// Decode returns the raw bytes of an encoded file.
func Decode(f model.EncodedFile) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	return b, nil
}

// DataURL renders f as a data: URI.
func DataURL(f model.EncodedFile) string {
	return "data:" + f.MIMEType + ";base64," + f.Data
}
