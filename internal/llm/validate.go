package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/assessor/internal/model"
)

// The wire types mirror model.AnalysisResult with pointer fields so that
// absent keys can be told apart from zero values.
type wireCriterion struct {
	Score       *float64 `json:"score" validate:"required,min=0,max=100"`
	Title       *string  `json:"title" validate:"required"`
	Description *string  `json:"description" validate:"required"`
	Status      *string  `json:"status" validate:"required,oneof=excellent good warning critical"`
}

type wireCriteria struct {
	RealContext       *wireCriterion `json:"realContext" validate:"required"`
	ProblemSolving    *wireCriterion `json:"problemSolving" validate:"required"`
	Interdisciplinary *wireCriterion `json:"interdisciplinary" validate:"required"`
	TechnicalQuality  *wireCriterion `json:"technicalQuality" validate:"required"`
	EditorialQuality  *wireCriterion `json:"editorialQuality" validate:"required"`
	ContentReview     *wireCriterion `json:"contentReview" validate:"required"`
}

type wireFix struct {
	QuestionID *string `json:"questionId" validate:"required"`
	Issue      *string `json:"issue" validate:"required"`
	Suggestion *string `json:"suggestion" validate:"required"`
}

type wireResult struct {
	OverallScore  *float64      `json:"overallScore" validate:"required,min=0,max=100"`
	BloomsLevel   *string       `json:"bloomsLevel" validate:"required"`
	Summary       *string       `json:"summary" validate:"required"`
	Strengths     []string      `json:"strengths" validate:"required"`
	Weaknesses    []string      `json:"weaknesses" validate:"required"`
	Suggestions   []string      `json:"suggestions" validate:"required"`
	QuestionFixes []wireFix     `json:"questionImprovements" validate:"required,dive"`
	Criteria      *wireCriteria `json:"criteriaBreakdown" validate:"required"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func resultValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ParseResult strips code fences from raw, decodes it and checks it against
// the response contract. Every failure is a *ResponseFormatError.
func ParseResult(raw string) (*model.AnalysisResult, error) {
	clean := StripCodeFences(raw)
	if clean == "" {
		return nil, &ResponseFormatError{Reason: "no text in response", Raw: raw}
	}

	var w wireResult
	if err := json.Unmarshal([]byte(clean), &w); err != nil {
		return nil, &ResponseFormatError{Reason: "invalid JSON", Raw: raw, Err: err}
	}
	if err := resultValidator().Struct(&w); err != nil {
		return nil, &ResponseFormatError{Reason: "schema violation", Raw: raw, Err: describeValidation(err)}
	}
	return w.toModel(), nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", ns, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", ns, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func (w *wireResult) toModel() *model.AnalysisResult {
	fixes := make([]model.QuestionFix, 0, len(w.QuestionFixes))
	for _, f := range w.QuestionFixes {
		fixes = append(fixes, model.QuestionFix{
			QuestionID: *f.QuestionID,
			Issue:      *f.Issue,
			Suggestion: *f.Suggestion,
		})
	}
	return &model.AnalysisResult{
		OverallScore:  score(*w.OverallScore),
		BloomsLevel:   *w.BloomsLevel,
		Summary:       *w.Summary,
		Strengths:     w.Strengths,
		Weaknesses:    w.Weaknesses,
		Suggestions:   w.Suggestions,
		QuestionFixes: fixes,
		Criteria: model.Criteria{
			RealContext:       w.Criteria.RealContext.toModel(),
			ProblemSolving:    w.Criteria.ProblemSolving.toModel(),
			Interdisciplinary: w.Criteria.Interdisciplinary.toModel(),
			TechnicalQuality:  w.Criteria.TechnicalQuality.toModel(),
			EditorialQuality:  w.Criteria.EditorialQuality.toModel(),
			ContentReview:     w.Criteria.ContentReview.toModel(),
		},
	}
}

func (c *wireCriterion) toModel() model.Criterion {
	return model.Criterion{
		Score:       score(*c.Score),
		Title:       *c.Title,
		Description: *c.Description,
		Status:      model.Status(*c.Status),
	}
}

// score rounds a validated 0–100 value to an integer.
func score(v float64) int {
	return int(math.Round(v))
}
