package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavelanni/assessor/internal/encoder"
	"github.com/pavelanni/assessor/internal/handler/views"
	appI18n "github.com/pavelanni/assessor/internal/i18n"
	"github.com/pavelanni/assessor/internal/llm"
	"github.com/pavelanni/assessor/internal/model"
)

// errorMsgIDs maps analysis error kinds to their user-facing messages.
var errorMsgIDs = map[string]string{
	llm.KindMissingCredential: "ErrMissingCredential",
	llm.KindEncoding:          "ErrEncoding",
	llm.KindBackend:           "ErrBackend",
	llm.KindResponseFormat:    "ErrResponseFormat",
}

// StatusForKind maps an analysis error kind to an HTTP status.
func StatusForKind(kind string) int {
	switch kind {
	case llm.KindEncoding, KindInvalidRequest, KindUnsupportedMedia:
		return http.StatusBadRequest
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case llm.KindBackend, llm.KindResponseFormat:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	in, ierr := h.readForm(r)
	if ierr == nil {
		ierr = h.validate(&in)
	}
	if ierr != nil {
		slog.Info("rejected submission", "kind", ierr.Kind, "error", ierr)
		h.renderIndex(w, r, ierr.Status, in.Text, ierr.message(r.Context()))
		return
	}

	res, err := h.analyze(r.Context(), in)
	if err != nil {
		kind := llm.Kind(err)
		h.renderIndex(w, r, StatusForKind(kind), in.Text, kindMessage(r.Context(), kind))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ReportPage(res).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// apiError is the JSON error body of the API.
type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (h *Handler) handleAnalyzeAPI(w http.ResponseWriter, r *http.Request) {
	in, ierr := h.readAPI(r)
	if ierr == nil {
		ierr = h.validate(&in)
	}
	if ierr != nil {
		slog.Info("rejected submission", "kind", ierr.Kind, "error", ierr)
		writeJSON(w, ierr.Status, apiError{Error: ierr.message(r.Context()), Kind: ierr.Kind})
		return
	}

	res, err := h.analyze(r.Context(), in)
	if err != nil {
		kind := llm.Kind(err)
		writeJSON(w, StatusForKind(kind), apiError{Error: err.Error(), Kind: kind})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// analyze encodes the attachment, runs one analysis and records the call.
func (h *Handler) analyze(ctx context.Context, in input) (*model.AnalysisResult, error) {
	sub := model.Submission{
		TextLength: len([]rune(in.Text)),
		Backend:    h.analyzer.Backend(),
		Model:      h.analyzer.Model(),
	}

	var encoded *model.EncodedFile
	if att := in.Attachment; att != nil {
		f := encoder.EncodeAttachment(*att)
		encoded = &f
		sub.MediaType = att.MediaType
		sub.AttachmentSize = att.Size
		if encoder.IsPDF(att.MediaType) {
			if n, err := encoder.PageCount(att.Data); err == nil {
				sub.PageCount = n
			} else {
				slog.Debug("pdf page count", "file", att.OriginalName, "error", err)
			}
		}
	}

	log := slog.With("request_id", middleware.GetReqID(ctx), "backend", sub.Backend, "model", sub.Model)
	log.Info("analysis started", "text_len", sub.TextLength, "media_type", sub.MediaType, "size", sub.AttachmentSize, "pages", sub.PageCount)

	start := time.Now()
	res, err := h.analyzer.Analyze(ctx, in.Text, encoded)
	sub.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		sub.State = model.CallFailed
		sub.ErrorKind = llm.Kind(err)
		log.Error("analysis failed", "kind", sub.ErrorKind, "duration_ms", sub.DurationMS, "error", err)
	} else {
		sub.State = model.CallSucceeded
		log.Info("analysis finished", "overall_score", res.OverallScore, "duration_ms", sub.DurationMS)
	}
	h.record(sub)
	return res, err
}

// record logs the call. A failure here never fails the request.
func (h *Handler) record(sub model.Submission) {
	if h.recorder == nil {
		return
	}
	if _, err := h.recorder.RecordSubmission(sub); err != nil {
		slog.Warn("record submission", "error", err)
	}
}

func kindMessage(ctx context.Context, kind string) string {
	id, ok := errorMsgIDs[kind]
	if !ok {
		id = "ErrUnknown"
	}
	return appI18n.T(ctx, id)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json", "error", err)
	}
}
