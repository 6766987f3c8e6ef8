package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pavelanni/assessor/internal/encoder"
	appI18n "github.com/pavelanni/assessor/internal/i18n"
	"github.com/pavelanni/assessor/internal/llm"
	"github.com/pavelanni/assessor/internal/model"
)

// Kinds for requests rejected before any analysis.
const (
	KindInvalidRequest   = "invalid_request"
	KindUnsupportedMedia = "unsupported_media_type"
	KindFileTooLarge     = "file_too_large"
)

// input is one submission as read from a form or a JSON body.
type input struct {
	Text       string
	Attachment *model.Attachment
}

// inputError rejects a request before analysis. It carries the HTTP status,
// the API kind and a localizable message.
type inputError struct {
	Status int
	Kind   string
	MsgID  string
	Data   map[string]any
	Err    error
}

func (e *inputError) Error() string {
	if e.Err != nil {
		return e.Kind + ": " + e.Err.Error()
	}
	return e.Kind
}

func (e *inputError) Unwrap() error { return e.Err }

func (e *inputError) message(ctx context.Context) string {
	if e.Data != nil {
		return appI18n.Td(ctx, e.MsgID, e.Data)
	}
	return appI18n.T(ctx, e.MsgID)
}

func tooLarge(maxMB int64, err error) *inputError {
	return &inputError{
		Status: http.StatusRequestEntityTooLarge,
		Kind:   KindFileTooLarge,
		MsgID:  "ErrFileTooLarge",
		Data:   map[string]any{"MaxMB": maxMB},
		Err:    err,
	}
}

func badRequest(msgID string, err error) *inputError {
	return &inputError{Status: http.StatusBadRequest, Kind: KindInvalidRequest, MsgID: msgID, Err: err}
}

// formInputError classifies a body read or parse failure.
func formInputError(err error, maxMB int64) *inputError {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
		return tooLarge(maxMB, err)
	}
	return badRequest("ErrBadForm", err)
}

// readForm reads the text and file fields of an already parsed multipart
// or urlencoded form.
func (h *Handler) readForm(r *http.Request) (input, *inputError) {
	if r.MultipartForm == nil && r.PostForm == nil {
		err := r.ParseMultipartForm(multipartMemory)
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return input{}, formInputError(err, h.maxUploadMB())
		}
	}
	in := input{Text: r.FormValue("text")}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil
	case err != nil:
		return in, badRequest("ErrBadForm", err)
	}
	defer file.Close()

	// Browsers send an empty part when no file was chosen.
	if header.Filename == "" && header.Size == 0 {
		return in, nil
	}
	if header.Size > h.config.MaxUploadBytes {
		return in, tooLarge(h.maxUploadMB(), nil)
	}
	att, ierr := h.readFilePart(file, header)
	if ierr != nil {
		return in, ierr
	}
	in.Attachment = att
	return in, nil
}

func (h *Handler) readFilePart(file multipart.File, header *multipart.FileHeader) (*model.Attachment, *inputError) {
	data, err := io.ReadAll(io.LimitReader(file, h.config.MaxUploadBytes+1))
	if err != nil {
		return nil, &inputError{
			Status: http.StatusBadRequest,
			Kind:   llm.KindEncoding,
			MsgID:  "ErrEncoding",
			Err:    &encoder.EncodingError{Name: header.Filename, Err: err},
		}
	}
	return &model.Attachment{
		Data:         data,
		MediaType:    header.Header.Get("Content-Type"),
		OriginalName: header.Filename,
		Size:         int64(len(data)),
	}, nil
}

// apiRequest is the JSON body of POST /api/analyze.
type apiRequest struct {
	Text string   `json:"text"`
	File *apiFile `json:"file,omitempty"`
}

type apiFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// readAPI accepts a JSON body or, for curl-style clients, a multipart form.
func (h *Handler) readAPI(r *http.Request) (input, *inputError) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" || ct == "application/x-www-form-urlencoded" {
		return h.readForm(r)
	}

	var req apiRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return input{}, tooLarge(h.maxUploadMB(), err)
		}
		return input{}, badRequest("ErrBadForm", err)
	}

	in := input{Text: req.Text}
	if req.File == nil || (req.File.Data == "" && req.File.Name == "") {
		return in, nil
	}
	data, err := encoder.Decode(model.EncodedFile{Data: req.File.Data, MIMEType: req.File.MIMEType})
	if err != nil {
		return in, &inputError{Status: http.StatusBadRequest, Kind: llm.KindEncoding, MsgID: "ErrEncoding", Err: err}
	}
	if int64(len(data)) > h.config.MaxUploadBytes {
		return in, tooLarge(h.maxUploadMB(), nil)
	}
	in.Attachment = &model.Attachment{
		Data:         data,
		MediaType:    req.File.MIMEType,
		OriginalName: req.File.Name,
		Size:         int64(len(data)),
	}
	return in, nil
}

// validate enforces the caller precondition and the file boundary. It
// settles the attachment's media type.
func (h *Handler) validate(in *input) *inputError {
	if strings.TrimSpace(in.Text) == "" && in.Attachment == nil {
		return badRequest("ErrEmptyInput", nil)
	}
	if in.Attachment == nil {
		return nil
	}
	if in.Attachment.Size > h.config.MaxUploadBytes {
		return tooLarge(h.maxUploadMB(), nil)
	}
	mt := encoder.DetectMediaType(in.Attachment.MediaType, in.Attachment.Data)
	if !encoder.IsSupported(mt) {
		return &inputError{
			Status: http.StatusBadRequest,
			Kind:   KindUnsupportedMedia,
			MsgID:  "ErrUnsupportedType",
			Data:   map[string]any{"Type": mt},
		}
	}
	in.Attachment.MediaType = mt
	return nil
}
