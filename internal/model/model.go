package model

import (
	"context"
	"time"
)

// Status is the backend's qualitative label for a criterion.
// It is reported alongside the score and never derived from it.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusWarning   Status = "warning"
	StatusCritical  Status = "critical"
)

// Criterion is one graded dimension of the rubric.
type Criterion struct {
	Score       int    `json:"score"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// QuestionFix is a concrete improvement for a single question of the paper.
type QuestionFix struct {
	QuestionID string `json:"questionId"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// Criteria holds the six rubric dimensions. All six are always populated.
type Criteria struct {
	RealContext       Criterion `json:"realContext"`
	ProblemSolving    Criterion `json:"problemSolving"`
	Interdisciplinary Criterion `json:"interdisciplinary"`
	TechnicalQuality  Criterion `json:"technicalQuality"`
	EditorialQuality  Criterion `json:"editorialQuality"`
	ContentReview     Criterion `json:"contentReview"`
}

// CriterionKey names a slot in Criteria.
type CriterionKey string

const (
	KeyRealContext       CriterionKey = "realContext"
	KeyProblemSolving    CriterionKey = "problemSolving"
	KeyInterdisciplinary CriterionKey = "interdisciplinary"
	KeyTechnicalQuality  CriterionKey = "technicalQuality"
	KeyEditorialQuality  CriterionKey = "editorialQuality"
	KeyContentReview     CriterionKey = "contentReview"
)

// CriterionKeys lists the rubric slots in report order.
var CriterionKeys = []CriterionKey{
	KeyRealContext,
	KeyProblemSolving,
	KeyInterdisciplinary,
	KeyTechnicalQuality,
	KeyEditorialQuality,
	KeyContentReview,
}

// NamedCriterion pairs a criterion with its slot key.
type NamedCriterion struct {
	Key CriterionKey
	Criterion
}

// Ordered returns the six criteria in report order.
func (c Criteria) Ordered() []NamedCriterion {
	return []NamedCriterion{
		{KeyRealContext, c.RealContext},
		{KeyProblemSolving, c.ProblemSolving},
		{KeyInterdisciplinary, c.Interdisciplinary},
		{KeyTechnicalQuality, c.TechnicalQuality},
		{KeyEditorialQuality, c.EditorialQuality},
		{KeyContentReview, c.ContentReview},
	}
}

// AnalysisResult is the structured verdict returned by the model.
type AnalysisResult struct {
	OverallScore  int           `json:"overallScore"`
	BloomsLevel   string        `json:"bloomsLevel"`
	Summary       string        `json:"summary"`
	Strengths     []string      `json:"strengths"`
	Weaknesses    []string      `json:"weaknesses"`
	Suggestions   []string      `json:"suggestions"`
	QuestionFixes []QuestionFix `json:"questionImprovements"`
	Criteria      Criteria      `json:"criteriaBreakdown"`
}

// Attachment is an uploaded file as received at the HTTP or CLI boundary.
type Attachment struct {
	Data         []byte
	MediaType    string
	OriginalName string
	Size         int64
}

// EncodedFile is a transport-safe attachment: base64 data plus its media type.
type EncodedFile struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// AnalysisRequest is what a caller submits for one analysis.
// At least one of FreeText or Attachment must be set; callers enforce this.
type AnalysisRequest struct {
	FreeText   string
	Attachment *EncodedFile
}

// CallState tracks a single analysis call.
type CallState string

const (
	CallIdle      CallState = "idle"
	CallSending   CallState = "sending"
	CallSucceeded CallState = "succeeded"
	CallFailed    CallState = "failed"
)

// Submission is the metadata of one analysis call kept in the submission log.
// It never holds the submitted material or the result.
type Submission struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	TextLength     int       `json:"text_length"`
	MediaType      string    `json:"media_type,omitempty"`
	AttachmentSize int64     `json:"attachment_size,omitempty"`
	PageCount      int       `json:"page_count,omitempty"`
	Backend        string    `json:"backend"`
	Model          string    `json:"model"`
	State          CallState `json:"state"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
}

// Deployment describes the server that last wrote to a submission log.
type Deployment struct {
	Backend   string    `json:"backend"`
	Model     string    `json:"model"`
	Lang      string    `json:"lang"`
	StartedAt time.Time `json:"started_at"`
}

// SubmissionExport is the top-level JSON structure for the export command.
type SubmissionExport struct {
	ExportedAt    time.Time    `json:"exported_at"`
	SchemaVersion string       `json:"schema_version"`
	Deployment    *Deployment  `json:"deployment,omitempty"`
	Count         int          `json:"count"`
	Submissions   []Submission `json:"submissions"`
}

// ServerConfig holds runtime web parameters set via CLI flags.
type ServerConfig struct {
	BasePath       string // URL prefix for sub-path deployments (e.g. "/assess")
	SecureCookies  bool   // Set Secure flag on cookies (disable for local dev)
	MaxUploadBytes int64
	Lang           string
	AllowedOrigins []string // CORS origins for the JSON API
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
