// Package prompts holds the fixed rubric, the user message template and the
// response schema sent with every analysis.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed system.txt
var systemInstruction string

//go:embed user.tmpl
var userTemplateText string

var userTmpl = template.Must(template.New("user").Parse(userTemplateText))

// SystemInstruction returns the evaluation rubric. It is constant for the
// lifetime of the process.
func SystemInstruction() string {
	return strings.TrimSpace(systemInstruction)
}

// UserData holds template data for the user message.
type UserData struct {
	Text     string
	HasFile  bool
	FileRole string
}

// FileRole describes an attachment of the given media type to the model.
func FileRole(mediaType string) string {
	if strings.EqualFold(strings.TrimSpace(mediaType), "application/pdf") {
		return "A PDF assessment file"
	}
	return "An image"
}

// BuildUserMessage renders the text part of the request. text is embedded
// verbatim; the attachment itself is never interpolated.
func BuildUserMessage(text, mediaType string, hasFile bool) string {
	data := UserData{Text: text, HasFile: hasFile}
	if hasFile {
		data.FileRole = FileRole(mediaType)
	}

	var sb strings.Builder
	// The template only reads UserData fields and a Builder never fails.
	if err := userTmpl.Execute(&sb, data); err != nil {
		panic(fmt.Sprintf("render user message: %v", err))
	}
	return strings.TrimSpace(sb.String())
}
