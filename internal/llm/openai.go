package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/assessor/internal/encoder"
	"github.com/pavelanni/assessor/internal/llm/prompts"
)

// OpenAIBackend calls an OpenAI-compatible chat completions API.
type OpenAIBackend struct {
	api   *openai.Client
	model string
}

// NewOpenAIBackend creates a backend. An empty baseURL uses the OpenAI API.
func NewOpenAIBackend(apiKey, model, baseURL string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIBackend{
		api:   openai.NewClientWithConfig(config),
		model: strings.TrimSpace(model),
	}
}

func (o *OpenAIBackend) Name() string { return BackendOpenAI }

// Generate sends one chat completion with a strict JSON schema response
// format and returns the first choice's content.
func (o *OpenAIBackend) Generate(ctx context.Context, req Request) (string, error) {
	user, err := openAIUserMessage(req.Parts)
	if err != nil {
		return "", err
	}
	schema, err := prompts.MarshalJSONSchema()
	if err != nil {
		return "", fmt.Errorf("marshal response schema: %w", err)
	}

	resp, err := o.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			user,
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "assessment_analysis",
				Schema: schema,
				Strict: true,
			},
		},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIUserMessage keeps the part order: image first, then text. Chat
// completions only take images inline, so PDFs are refused.
func openAIUserMessage(in []Part) (openai.ChatCompletionMessage, error) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	for _, p := range in {
		switch p.Kind {
		case PartFile:
			if encoder.IsPDF(p.File.MIMEType) {
				return msg, fmt.Errorf("openai: %s attachments are not supported by chat completions", p.File.MIMEType)
			}
			msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    encoder.DataURL(*p.File),
					Detail: openai.ImageURLDetailHigh,
				},
			})
		case PartText:
			msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
	}
	return msg, nil
}
