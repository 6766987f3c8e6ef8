package llm

import (
	"context"

	"github.com/pavelanni/assessor/internal/llm/prompts"
	"github.com/pavelanni/assessor/internal/model"
)

// PartKind distinguishes the content parts of a request.
type PartKind string

const (
	PartText PartKind = "text"
	PartFile PartKind = "file"
)

// Part is one ordered piece of user content.
type Part struct {
	Kind PartKind
	Text string
	File *model.EncodedFile
}

// Request is everything a backend needs for one generation call.
type Request struct {
	SystemInstruction string
	Parts             []Part
	Schema            *prompts.Field
	Temperature       float32
}

// Backend performs a single generation call and returns the raw text the
// model produced. Implementations must not retry.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
