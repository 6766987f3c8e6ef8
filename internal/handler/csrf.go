package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	appI18n "github.com/pavelanni/assessor/internal/i18n"
	"github.com/pavelanni/assessor/internal/model"
)

const (
	csrfCookieName = "csrf_token"
	csrfFieldName  = "csrf_token"

	// multipartMemory is how much of a multipart body is kept in memory
	// before spilling to temporary files.
	multipartMemory = 8 << 20

	// formOverhead allows for the text field and multipart framing on top
	// of the file itself.
	formOverhead = 1 << 20
)

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return r, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     h.path("/"),
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	ctx := model.ContextWithCSRFToken(r.Context(), token)
	return r.WithContext(ctx), true
}

// csrfMiddleware implements the double-submit cookie check for the HTML
// form. Every response carries a fresh token.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			r, ok := h.setCSRFCookie(w, r)
			if ok {
				next.ServeHTTP(w, r)
			}
			return
		}

		err := r.ParseMultipartForm(multipartMemory)
		if r.MultipartForm != nil {
			// The server only cleans up the request it created, not this copy.
			defer r.MultipartForm.RemoveAll()
		}
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			// The token may sit beyond the part that could be read.
			slog.Warn("parse form", "error", err)
			r, ok := h.setCSRFCookie(w, r)
			if !ok {
				return
			}
			in := formInputError(err, h.maxUploadMB())
			h.renderIndex(w, r, in.Status, "", in.message(r.Context()))
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing")
			h.csrfFailed(w, r)
			return
		}

		formToken := r.FormValue(csrfFieldName)
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			h.csrfFailed(w, r)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			h.csrfFailed(w, r)
			return
		}

		r, ok := h.setCSRFCookie(w, r)
		if ok {
			next.ServeHTTP(w, r)
		}
	})
}

func (h *Handler) csrfFailed(w http.ResponseWriter, r *http.Request) {
	r, ok := h.setCSRFCookie(w, r)
	if !ok {
		return
	}
	h.renderIndex(w, r, http.StatusForbidden, "", appI18n.T(r.Context(), "ErrCSRF"))
}

// limitBody caps the request body at the upload limit plus form overhead.
// JSON bodies carry the file in base64, so they get a third more.
func (h *Handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
			r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit())
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) bodyLimit() int64 {
	return h.config.MaxUploadBytes/3*4 + 4 + formOverhead
}
