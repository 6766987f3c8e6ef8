package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pavelanni/assessor/internal/encoder"
	"github.com/pavelanni/assessor/internal/llm/prompts"
)

// GeminiBackend calls the Gemini API through the generative-ai-go client.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend opens a Gemini client. No request is sent until Generate.
func NewGeminiBackend(ctx context.Context, apiKey, model, endpoint string) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &MissingCredentialError{Backend: BackendGemini}
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GeminiBackend{client: cl, model: strings.TrimSpace(model)}, nil
}

func (g *GeminiBackend) Name() string { return BackendGemini }

// Close closes the underlying client.
func (g *GeminiBackend) Close() error { return g.client.Close() }

// Generate sends one GenerateContent call and returns the first text part.
func (g *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	m := g.client.GenerativeModel(g.model)
	if m == nil {
		return "", errors.New("gemini: model is nil")
	}
	configureModel(m, req)

	parts, err := geminiParts(req.Parts)
	if err != nil {
		return "", err
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return firstText(resp), nil
}

func configureModel(m *genai.GenerativeModel, req Request) {
	temp := req.Temperature
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   genaiSchema(req.Schema),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.SystemInstruction)},
	}
}

func geminiParts(in []Part) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(in))
	for _, p := range in {
		switch p.Kind {
		case PartFile:
			data, err := encoder.Decode(*p.File)
			if err != nil {
				return nil, fmt.Errorf("gemini: attachment: %w", err)
			}
			parts = append(parts, genai.Blob{MIMEType: p.File.MIMEType, Data: data})
		case PartText:
			parts = append(parts, genai.Text(p.Text))
		}
	}
	return parts, nil
}

func genaiSchema(f *prompts.Field) *genai.Schema {
	if f == nil {
		return nil
	}
	s := &genai.Schema{
		Description: f.Description,
		Enum:        f.Enum,
	}
	switch f.Kind {
	case prompts.KindObject:
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(f.Properties))
		for _, p := range f.Properties {
			s.Properties[p.Name] = genaiSchema(p.Field)
		}
		s.Required = f.Required()
	case prompts.KindArray:
		s.Type = genai.TypeArray
		s.Items = genaiSchema(f.Items)
	case prompts.KindInteger:
		s.Type = genai.TypeInteger
	default:
		s.Type = genai.TypeString
		if len(f.Enum) > 0 {
			s.Format = "enum"
		}
	}
	return s
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
