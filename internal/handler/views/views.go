// Package views holds the templ components for the HTML pages.
//
//go:generate templ generate
package views

import (
	"context"

	appI18n "github.com/pavelanni/assessor/internal/i18n"
	"github.com/pavelanni/assessor/internal/model"
)

// FormData is what the input form shows.
type FormData struct {
	Text   string
	Error  string
	MaxMB  int64
	Logged int // analyses in the submission log; negative hides the footer
}

var criterionMsgIDs = map[model.CriterionKey]string{
	model.KeyRealContext:       "CriterionRealContext",
	model.KeyProblemSolving:    "CriterionProblemSolving",
	model.KeyInterdisciplinary: "CriterionInterdisciplinary",
	model.KeyTechnicalQuality:  "CriterionTechnicalQuality",
	model.KeyEditorialQuality:  "CriterionEditorialQuality",
	model.KeyContentReview:     "CriterionContentReview",
}

var statusMsgIDs = map[model.Status]string{
	model.StatusExcellent: "StatusExcellent",
	model.StatusGood:      "StatusGood",
	model.StatusWarning:   "StatusWarning",
	model.StatusCritical:  "StatusCritical",
}

// url prefixes p with the deployment base path.
func url(ctx context.Context, p string) string {
	return model.BasePathFromContext(ctx) + p
}

// statusLabel falls back to the raw status for values outside the four known ones.
func statusLabel(ctx context.Context, s model.Status) string {
	if id, ok := statusMsgIDs[s]; ok {
		return appI18n.T(ctx, id)
	}
	return string(s)
}
