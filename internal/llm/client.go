package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/assessor/internal/llm/prompts"
	"github.com/pavelanni/assessor/internal/model"
)

const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultTemperature = float32(0.2)
)

// Config configures the analysis client. APIKey is required.
type Config struct {
	APIKey      string
	Backend     string
	Model       string
	BaseURL     string
	Temperature float32
}

func (c Config) withDefaults() Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendGemini
	}
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		if c.Backend == BackendOpenAI {
			c.Model = DefaultOpenAIModel
		} else {
			c.Model = DefaultGeminiModel
		}
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// Client sends assessment material to the model and returns its verdict.
// It holds no per-call state and may be shared between goroutines.
type Client struct {
	cfg     Config
	backend Backend
}

// New creates a client for the configured backend. It fails with a
// *MissingCredentialError before touching the network if no key is set.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Backend: cfg.Backend}
	}

	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case BackendGemini:
		b, err = NewGeminiBackend(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case BackendOpenAI:
		b = NewOpenAIBackend(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown backend %q; use %q or %q", cfg.Backend, BackendGemini, BackendOpenAI)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", cfg.Backend, err)
	}
	return &Client{cfg: cfg, backend: b}, nil
}

// NewWithBackend creates a client that talks to b.
func NewWithBackend(cfg Config, b Backend) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Backend: b.Name()}
	}
	return &Client{cfg: cfg, backend: b}, nil
}

// Backend returns the backend name.
func (c *Client) Backend() string { return c.cfg.Backend }

// Model returns the model name.
func (c *Client) Model() string { return c.cfg.Model }

// Close releases the backend's resources, if it holds any.
func (c *Client) Close() error {
	if cl, ok := c.backend.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}

// Analyze grades the given text and optional attachment. Either may be
// empty; callers make sure at least one is present. Every failure is one of
// *MissingCredentialError, *BackendError or *ResponseFormatError.
func (c *Client) Analyze(ctx context.Context, freeText string, attachment *model.EncodedFile) (*model.AnalysisResult, error) {
	if c == nil || c.backend == nil || c.cfg.APIKey == "" {
		return nil, &MissingCredentialError{Backend: c.backendName()}
	}

	req := BuildRequest(freeText, attachment, c.cfg.Temperature)

	log := slog.With("backend", c.backend.Name(), "model", c.cfg.Model)
	log.Debug("analysis call", "state", model.CallSending, "text_len", len(freeText), "has_file", attachment != nil)
	start := time.Now()

	raw, err := c.backend.Generate(ctx, req)
	if err != nil {
		log.Debug("analysis call", "state", model.CallFailed, "error", err)
		return nil, &BackendError{Backend: c.backend.Name(), Err: err}
	}
	log.Debug("LLM response", "raw", raw)

	result, err := ParseResult(raw)
	if err != nil {
		log.Debug("analysis call", "state", model.CallFailed, "error", err)
		return nil, err
	}
	log.Debug("analysis call", "state", model.CallSucceeded, "duration", time.Since(start), "overall_score", result.OverallScore)
	return result, nil
}

func (c *Client) backendName() string {
	if c == nil {
		return "llm"
	}
	if c.backend != nil {
		return c.backend.Name()
	}
	if c.cfg.Backend != "" {
		return c.cfg.Backend
	}
	return "llm"
}

// BuildRequest composes the request for one analysis: the fixed rubric, the
// attachment part (if any) followed by a single text part.
func BuildRequest(freeText string, attachment *model.EncodedFile, temperature float32) Request {
	mediaType := ""
	if attachment != nil {
		mediaType = attachment.MIMEType
	}
	text := prompts.BuildUserMessage(freeText, mediaType, attachment != nil)

	parts := make([]Part, 0, 2)
	if attachment != nil {
		parts = append(parts, Part{Kind: PartFile, File: attachment})
	}
	parts = append(parts, Part{Kind: PartText, Text: text})

	return Request{
		SystemInstruction: prompts.SystemInstruction(),
		Parts:             parts,
		Schema:            prompts.ResponseSchema(),
		Temperature:       temperature,
	}
}
