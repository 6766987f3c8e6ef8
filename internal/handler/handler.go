package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pavelanni/assessor/internal/handler/views"
	"github.com/pavelanni/assessor/internal/model"
)

// DefaultMaxUploadBytes is used when the config sets no upload limit.
const DefaultMaxUploadBytes = 10 << 20

// Analyzer runs one analysis. *llm.Client implements it.
type Analyzer interface {
	Analyze(ctx context.Context, freeText string, attachment *model.EncodedFile) (*model.AnalysisResult, error)
	Backend() string
	Model() string
}

// Recorder is the submission log. *store.Store implements it.
type Recorder interface {
	RecordSubmission(model.Submission) (model.Submission, error)
	SubmissionCount() (int, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	analyzer Analyzer
	recorder Recorder
	config   model.ServerConfig
}

// New creates a new Handler. rec may be nil when no submission log is kept.
func New(a Analyzer, rec Recorder, cfg model.ServerConfig) (*Handler, error) {
	if a == nil {
		return nil, errors.New("handler: analyzer is required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	return &Handler{analyzer: a, recorder: rec, config: cfg}, nil
}

// NormalizeBasePath returns p with a leading slash and no trailing slash,
// or "" for the root.
func NormalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.limitBody, h.csrfMiddleware)
		r.Get("/", h.handleIndex)
		r.Post("/analyze", h.handleAnalyzeForm)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.allowedOrigins(),
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
		r.Use(h.limitBody)
		r.Post("/analyze", h.handleAnalyzeAPI)
	})
}

// BasePathMiddleware stores the configured base path in the request context
// so that views can build links.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Mount registers the routes on r, under the base path when one is set.
func (h *Handler) Mount(r chi.Router) {
	basePath := h.config.BasePath
	if basePath == "" {
		r.Group(func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		return
	}
	r.Route(basePath, func(sub chi.Router) {
		sub.Use(h.BasePathMiddleware)
		h.Routes(sub)
	})
	r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) allowedOrigins() []string {
	if len(h.config.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return h.config.AllowedOrigins
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, "", "")
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, status int, text, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := views.IndexPage(views.FormData{
		Text:   text,
		Error:  errMsg,
		MaxMB:  h.maxUploadMB(),
		Logged: h.loggedCount(),
	})
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) maxUploadMB() int64 {
	mb := h.config.MaxUploadBytes >> 20
	if mb < 1 {
		mb = 1
	}
	return mb
}

// loggedCount returns -1 when there is no log or it cannot be read.
func (h *Handler) loggedCount() int {
	if h.recorder == nil {
		return -1
	}
	n, err := h.recorder.SubmissionCount()
	if err != nil {
		slog.Warn("count submissions", "error", err)
		return -1
	}
	return n
}
