package httphandler

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// AllowForm rejects request bodies that are not html form submissions.
func AllowForm(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}
		switch mediaType {
		case "application/x-www-form-urlencoded", "multipart/form-data":
		default:
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

func RequestLogger(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
	return http.HandlerFunc(hf)
}

// RequireLogin sends anonymous visitors to the login page and remembers where
// they were going.
func RequireLogin(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if !currentSession(r.Context()).Authenticated() {
			target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}
