package prompts

import "encoding/json"

// Kind is the JSON type of a schema node.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindInteger Kind = "integer"
)

// Field is one node of the response schema. Every property of an object
// node is required.
type Field struct {
	Kind        Kind
	Description string
	Enum        []string
	Items       *Field
	Properties  []Property
}

// Property is a named child of an object node.
type Property struct {
	Name  string
	Field *Field
}

// Required returns the property names of an object node in declaration order.
func (f *Field) Required() []string {
	names := make([]string, 0, len(f.Properties))
	for _, p := range f.Properties {
		names = append(names, p.Name)
	}
	return names
}

// StatusValues are the allowed criterion statuses.
var StatusValues = []string{"excellent", "good", "warning", "critical"}

func str(desc string) *Field { return &Field{Kind: KindString, Description: desc} }

func strList(desc string) *Field {
	return &Field{Kind: KindArray, Description: desc, Items: &Field{Kind: KindString}}
}

func criterion(desc string) *Field {
	return &Field{
		Kind:        KindObject,
		Description: desc,
		Properties: []Property{
			{"score", &Field{Kind: KindInteger, Description: "0 to 100"}},
			{"title", str("Short title of the criterion")},
			{"description", str("Findings for this criterion")},
			{"status", &Field{Kind: KindString, Enum: StatusValues}},
		},
	}
}

// ResponseSchema returns the shape the model must answer with.
func ResponseSchema() *Field {
	return &Field{
		Kind: KindObject,
		Properties: []Property{
			{"overallScore", &Field{Kind: KindInteger, Description: "0 to 100 score of the assessment quality"}},
			{"bloomsLevel", str("Dominant Bloom's taxonomy level across the questions, e.g. Analyze or Evaluate")},
			{"summary", str("Brief summary of the analysis")},
			{"strengths", strList("Strengths found in the assessment")},
			{"weaknesses", strList("Weaknesses or violations of the principles")},
			{"suggestions", strList("General suggestions for improvement")},
			{"questionImprovements", &Field{
				Kind:        KindArray,
				Description: "Specific questions that need improvement, with concrete advice",
				Items: &Field{
					Kind: KindObject,
					Properties: []Property{
						{"questionId", str("Label of the question, e.g. '第 5 題' or 'Q12'")},
						{"issue", str("The problem found in this question")},
						{"suggestion", str("How to rewrite or fix this question")},
					},
				},
			}},
			{"criteriaBreakdown", &Field{
				Kind: KindObject,
				Properties: []Property{
					{"realContext", criterion("Real context (真實情境)")},
					{"problemSolving", criterion("Problem solving (問題解決)")},
					{"interdisciplinary", criterion("Cross-discipline / core competencies (跨領域/核心素養)")},
					{"technicalQuality", criterion("Technical item-writing quality (一般命題原則)")},
					{"editorialQuality", criterion("Editorial and formatting check (文句與格式檢核)")},
					{"contentReview", criterion("Content review: morals, logic, values (內容審查)")},
				},
			}},
		},
	}
}

// JSONSchema renders f as a strict JSON Schema document.
func JSONSchema(f *Field) map[string]any {
	node := map[string]any{"type": string(f.Kind)}
	if f.Description != "" {
		node["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		node["enum"] = f.Enum
	}
	switch f.Kind {
	case KindArray:
		if f.Items != nil {
			node["items"] = JSONSchema(f.Items)
		}
	case KindObject:
		props := make(map[string]any, len(f.Properties))
		for _, p := range f.Properties {
			props[p.Name] = JSONSchema(p.Field)
		}
		node["properties"] = props
		node["required"] = f.Required()
		node["additionalProperties"] = false
	}
	return node
}

// MarshalJSONSchema returns the response schema as JSON Schema bytes.
func MarshalJSONSchema() (json.RawMessage, error) {
	return json.Marshal(JSONSchema(ResponseSchema()))
}
