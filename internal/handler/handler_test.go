package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/assessor/internal/encoder"
	appI18n "github.com/pavelanni/assessor/internal/i18n"
	"github.com/pavelanni/assessor/internal/llm"
	"github.com/pavelanni/assessor/internal/model"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func testResult() *model.AnalysisResult {
	c := func(score int, status model.Status) model.Criterion {
		return model.Criterion{Score: score, Title: "標題", Description: "說明", Status: status}
	}
	return &model.AnalysisResult{
		OverallScore: 72,
		BloomsLevel:  "Analyze",
		Summary:      "整體而言題目具備情境。",
		Strengths:    []string{"情境真實"},
		Weaknesses:   []string{"第 3 題選項不對稱"},
		Suggestions:  []string{"增加資料判讀題"},
		QuestionFixes: []model.QuestionFix{
			{QuestionID: "第 3 題", Issue: "選項長度不一", Suggestion: "調整選項長度"},
		},
		Criteria: model.Criteria{
			RealContext:       c(80, model.StatusGood),
			ProblemSolving:    c(70, model.StatusGood),
			Interdisciplinary: c(60, model.StatusWarning),
			TechnicalQuality:  c(75, model.StatusGood),
			EditorialQuality:  c(30, model.StatusCritical),
			ContentReview:     c(90, model.StatusExcellent),
		},
	}
}

type fakeAnalyzer struct {
	res   *model.AnalysisResult
	err   error
	calls int
	text  string
	file  *model.EncodedFile
}

func (f *fakeAnalyzer) Analyze(_ context.Context, text string, att *model.EncodedFile) (*model.AnalysisResult, error) {
	f.calls++
	f.text = text
	f.file = att
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func (f *fakeAnalyzer) Backend() string { return "fake" }
func (f *fakeAnalyzer) Model() string   { return "fake-model" }

type fakeRecorder struct {
	subs []model.Submission
	err  error
}

func (f *fakeRecorder) RecordSubmission(s model.Submission) (model.Submission, error) {
	if f.err != nil {
		return s, f.err
	}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakeRecorder) SubmissionCount() (int, error) { return len(f.subs), f.err }

func newTestServer(t *testing.T, a Analyzer, rec Recorder, cfg model.ServerConfig) http.Handler {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	h, err := New(a, rec, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Mount(r)
	return r
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// fetchCSRF loads the form and returns the cookie and the token it embeds.
func fetchCSRF(t *testing.T, srv http.Handler, path string) (*http.Cookie, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, rec.Code)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no csrf cookie set")
	}
	m := csrfInput.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatal("no csrf token in form")
	}
	if m[1] != cookie.Value {
		t.Fatalf("form token %q does not match cookie %q", m[1], cookie.Value)
	}
	return cookie, m[1]
}

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if file != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		hdr.Set("Content-Type", file.contentType)
		pw, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := pw.Write(file.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postForm(t *testing.T, srv http.Handler, path string, cookie *http.Cookie, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, fields, file)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, nil, model.ServerConfig{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndexPage(t *testing.T) {
	rec := &fakeRecorder{subs: make([]model.Submission, 3)}
	srv := newTestServer(t, &fakeAnalyzer{}, rec, model.ServerConfig{MaxUploadBytes: 5 << 20})
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := w.Body.String()
	for _, want := range []string{
		`action="/analyze"`,
		`enctype="multipart/form-data"`,
		`name="text"`,
		`name="file"`,
		"up to 5 MB",
		"3 analyses logged.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestAnalyzeFormSuccess(t *testing.T) {
	fa := &fakeAnalyzer{res: testResult()}
	rec := &fakeRecorder{}
	srv := newTestServer(t, fa, rec, model.ServerConfig{})
	cookie, token := fetchCSRF(t, srv, "/")

	w := postForm(t, srv, "/analyze", cookie, map[string]string{"csrf_token": token, "text": "請問..."}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{"72 / 100", "第 3 題", "調整選項長度", `class="criterion critical"`, "Analyze another"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if fa.text != "請問..." || fa.file != nil {
		t.Errorf("analyzer got text %q file %v", fa.text, fa.file)
	}

	if len(rec.subs) != 1 {
		t.Fatalf("expected 1 recorded submission, got %d", len(rec.subs))
	}
	sub := rec.subs[0]
	if sub.State != model.CallSucceeded || sub.TextLength != 5 || sub.Backend != "fake" {
		t.Errorf("recorded %+v", sub)
	}
}

func TestAnalyzeFormWithImage(t *testing.T) {
	fa := &fakeAnalyzer{res: testResult()}
	rec := &fakeRecorder{}
	srv := newTestServer(t, fa, rec, model.ServerConfig{})
	cookie, token := fetchCSRF(t, srv, "/")

	data := append(append([]byte{}, pngHeader...), make([]byte, 50*1024)...)
	w := postForm(t, srv, "/analyze", cookie,
		map[string]string{"csrf_token": token},
		&filePart{name: "paper.png", contentType: "application/octet-stream", data: data})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if fa.file == nil || fa.file.MIMEType != "image/png" {
		t.Fatalf("analyzer should get a sniffed image/png attachment, got %+v", fa.file)
	}
	got, err := encoder.Decode(*fa.file)
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("attachment bytes changed (err %v)", err)
	}
	if rec.subs[0].MediaType != "image/png" || rec.subs[0].AttachmentSize != int64(len(data)) {
		t.Errorf("recorded %+v", rec.subs[0])
	}
}

func TestAnalyzeFormRejects(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		file       *filePart
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "empty input",
			fields:     map[string]string{"text": "   \n"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Enter some text or attach a file.",
		},
		{
			name:       "unsupported type",
			fields:     map[string]string{"text": "x"},
			file:       &filePart{name: "notes.txt", contentType: "text/plain", data: []byte("hello")},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Unsupported file type text/plain",
		},
		{
			name:       "file over limit",
			file:       &filePart{name: "big.png", contentType: "image/png", data: make([]byte, 4096)},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantMsg:    "larger than 1 MB",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAnalyzer{res: testResult()}
			srv := newTestServer(t, fa, nil, model.ServerConfig{MaxUploadBytes: 2048})
			cookie, token := fetchCSRF(t, srv, "/")
			fields := map[string]string{"csrf_token": token}
			for k, v := range tt.fields {
				fields[k] = v
			}

			w := postForm(t, srv, "/analyze", cookie, fields, tt.file)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantMsg) {
				t.Errorf("body missing %q", tt.wantMsg)
			}
			if fa.calls != 0 {
				t.Errorf("analyzer should not be called, got %d calls", fa.calls)
			}
		})
	}
}

func TestAnalyzeFormKeepsTextOnError(t *testing.T) {
	fa := &fakeAnalyzer{err: &llm.BackendError{Backend: "fake", Err: errors.New("quota exceeded")}}
	srv := newTestServer(t, fa, nil, model.ServerConfig{})
	cookie, token := fetchCSRF(t, srv, "/")

	w := postForm(t, srv, "/analyze", cookie, map[string]string{"csrf_token": token, "text": "<b>第一題</b>"}, nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "The analysis service is unavailable.") {
		t.Error("expected localized backend error")
	}
	if !strings.Contains(body, "&lt;b&gt;第一題&lt;/b&gt;") {
		t.Error("submitted text should be kept, escaped")
	}
}

func TestAnalyzeFormBodyTooLarge(t *testing.T) {
	fa := &fakeAnalyzer{res: testResult()}
	srv := newTestServer(t, fa, nil, model.ServerConfig{MaxUploadBytes: 1024})
	cookie, token := fetchCSRF(t, srv, "/")

	w := postForm(t, srv, "/analyze", cookie,
		map[string]string{"csrf_token": token},
		&filePart{name: "huge.pdf", contentType: "application/pdf", data: make([]byte, 3<<20)})
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
	if fa.calls != 0 {
		t.Error("analyzer should not be called")
	}
}

func TestLargeUploadLeavesNoTempFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	data := append(append([]byte{}, pngHeader...), make([]byte, 9<<20)...)
	for _, path := range []string{"/analyze", "/api/analyze"} {
		t.Run(path, func(t *testing.T) {
			handler := newTestServer(t, &fakeAnalyzer{res: testResult()}, nil, model.ServerConfig{})
			srv := httptest.NewServer(handler)
			defer srv.Close()

			cookie, token := fetchCSRF(t, handler, "/")
			body, ct := multipartBody(t, map[string]string{"csrf_token": token},
				&filePart{name: "paper.png", contentType: "image/png", data: data})
			req, err := http.NewRequest(http.MethodPost, srv.URL+path, body)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Content-Type", ct)
			req.AddCookie(cookie)
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("POST %s: %v", path, err)
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}

			left, err := filepath.Glob(filepath.Join(tmp, "multipart-*"))
			if err != nil {
				t.Fatal(err)
			}
			if len(left) != 0 {
				t.Errorf("temp files left behind: %v", left)
			}
		})
	}
}

func TestCSRF(t *testing.T) {
	fa := &fakeAnalyzer{res: testResult()}
	srv := newTestServer(t, fa, nil, model.ServerConfig{})
	cookie, _ := fetchCSRF(t, srv, "/")

	tests := []struct {
		name   string
		cookie *http.Cookie
		token  string
	}{
		{"no cookie", nil, cookie.Value},
		{"no token", cookie, ""},
		{"mismatch", cookie, strings.Repeat("x", len(cookie.Value))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]string{"text": "題目"}
			if tt.token != "" {
				fields["csrf_token"] = tt.token
			}
			w := postForm(t, srv, "/analyze", tt.cookie, fields, nil)
			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", w.Code)
			}
		})
	}
	if fa.calls != 0 {
		t.Errorf("analyzer should not be called, got %d", fa.calls)
	}
}

func postJSON(t *testing.T, srv http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestAPIAnalyzeSuccess(t *testing.T) {
	fa := &fakeAnalyzer{res: testResult()}
	srv := newTestServer(t, fa, &fakeRecorder{}, model.ServerConfig{})
	data := append(append([]byte{}, pngHeader...), 1, 2, 3)

	w := postJSON(t, srv, map[string]any{
		"text": "",
		"file": map[string]string{
			"name":     "q.png",
			"mimeType": "image/png",
			"data":     encoder.EncodeBytes(data, "image/png").Data,
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["overallScore"] != float64(72) {
		t.Errorf("overallScore = %v", got["overallScore"])
	}
	if _, ok := got["criteriaBreakdown"].(map[string]any)["contentReview"]; !ok {
		t.Error("criteriaBreakdown.contentReview missing")
	}
	if fa.file == nil || fa.file.MIMEType != "image/png" {
		t.Errorf("analyzer file = %+v", fa.file)
	}
}

func TestAPIAnalyzeMultipart(t *testing.T) {
	fa := &fakeAnalyzer{res: testResult()}
	srv := newTestServer(t, fa, nil, model.ServerConfig{})

	body, ct := multipartBody(t, map[string]string{"text": "題目"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if fa.text != "題目" {
		t.Errorf("analyzer text = %q", fa.text)
	}
}

func TestAPIAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"missing credential", &llm.MissingCredentialError{Backend: "gemini"}, http.StatusInternalServerError, llm.KindMissingCredential},
		{"encoding", &encoder.EncodingError{Err: io.ErrUnexpectedEOF}, http.StatusBadRequest, llm.KindEncoding},
		{"backend", &llm.BackendError{Backend: "gemini", Err: errors.New("429")}, http.StatusBadGateway, llm.KindBackend},
		{"response format", &llm.ResponseFormatError{Reason: "invalid JSON"}, http.StatusBadGateway, llm.KindResponseFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			srv := newTestServer(t, &fakeAnalyzer{err: tt.err}, rec, model.ServerConfig{})
			w := postJSON(t, srv, map[string]any{"text": "題目"})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if e := decodeAPIError(t, w); e.Kind != tt.wantKind || e.Error == "" {
				t.Errorf("error body = %+v", e)
			}
			if len(rec.subs) != 1 || rec.subs[0].State != model.CallFailed || rec.subs[0].ErrorKind != tt.wantKind {
				t.Errorf("recorded %+v", rec.subs)
			}
		})
	}
}

func TestAPIAnalyzeRejects(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantKind   string
	}{
		{"empty", map[string]any{"text": " "}, http.StatusBadRequest, KindInvalidRequest},
		{"bad json", `{"text":`, http.StatusBadRequest, KindInvalidRequest},
		{"unknown field", `{"prompt":"x"}`, http.StatusBadRequest, KindInvalidRequest},
		{"bad base64", map[string]any{"file": map[string]string{"name": "a.pdf", "mimeType": "application/pdf", "data": "%%%"}}, http.StatusBadRequest, llm.KindEncoding},
		{"unsupported", map[string]any{"file": map[string]string{"name": "a.gif", "mimeType": "image/gif", "data": "R0lGODlh"}}, http.StatusBadRequest, KindUnsupportedMedia},
		{"too large", map[string]any{"file": map[string]string{"name": "a.png", "mimeType": "image/png", "data": encoder.EncodeBytes(make([]byte, 4096), "image/png").Data}}, http.StatusRequestEntityTooLarge, KindFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAnalyzer{res: testResult()}
			rec := &fakeRecorder{}
			srv := newTestServer(t, fa, rec, model.ServerConfig{MaxUploadBytes: 2048})
			w := postJSON(t, srv, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if e := decodeAPIError(t, w); e.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", e.Kind, tt.wantKind)
			}
			if fa.calls != 0 || len(rec.subs) != 0 {
				t.Error("rejected requests should not reach the analyzer or the log")
			}
		})
	}
}

func TestRecorderFailureDoesNotFailRequest(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{res: testResult()}, &fakeRecorder{err: errors.New("disk full")}, model.ServerConfig{})
	w := postJSON(t, srv, map[string]any{"text": "題目"})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAPIIsCSRFExempt(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{res: testResult()}, nil, model.ServerConfig{})
	w := postJSON(t, srv, map[string]any{"text": "題目"})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAPICORSPreflight(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, nil, model.ServerConfig{AllowedOrigins: []string{"https://school.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://school.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://school.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://other.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected origin allowed: %q", got)
	}
}

func TestBasePath(t *testing.T) {
	fa := &fakeAnalyzer{res: testResult()}
	srv := newTestServer(t, fa, nil, model.ServerConfig{BasePath: "assess/"})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assess", nil))
	if w.Code != http.StatusMovedPermanently || w.Header().Get("Location") != "/assess/" {
		t.Errorf("GET /assess = %d %q", w.Code, w.Header().Get("Location"))
	}

	cookie, token := fetchCSRF(t, srv, "/assess/")
	if cookie.Path != "/assess/" {
		t.Errorf("cookie path = %q", cookie.Path)
	}

	w = postForm(t, srv, "/assess/analyze", cookie, map[string]string{"csrf_token": token, "text": "題目"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `href="/assess/"`) {
		t.Error("links should carry the base path")
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assess/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthz under base path = %d", w.Code)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"/":        "",
		"assess":   "/assess",
		"/assess/": "/assess",
		" /a/b ":   "/a/b",
	}
	for in, want := range tests {
		if got := NormalizeBasePath(in); got != want {
			t.Errorf("NormalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{llm.KindMissingCredential, http.StatusInternalServerError},
		{llm.KindEncoding, http.StatusBadRequest},
		{llm.KindBackend, http.StatusBadGateway},
		{llm.KindResponseFormat, http.StatusBadGateway},
		{KindFileTooLarge, http.StatusRequestEntityTooLarge},
		{llm.KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusForKind(tt.kind); got != tt.want {
			t.Errorf("StatusForKind(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
