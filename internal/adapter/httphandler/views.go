package httphandler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutTemplate = "templates/layout.html"

type page struct {
	User     *domain.User
	Products []domain.Product
	Product  domain.Product
	Total    string
	Form     any
	Errors   map[string]string
	Status   int
	Message  string
}

type Views struct {
	pages    map[string]*template.Template
	identity port.Identity
}

func NewViews(identity port.Identity, images port.ImageStorage) (Views, error) {
	const op = "NewViews"

	funcs := template.FuncMap{
		"imageURL": images.ImageURL,
		"price":    formatPrice,
	}

	layout, err := template.New(path.Base(layoutTemplate)).
		Funcs(funcs).ParseFS(templatesFS, layoutTemplate)
	if err != nil {
		return Views{}, fmt.Errorf("%s: %w", op, err)
	}

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return Views{}, fmt.Errorf("%s: %w", op, err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutTemplate {
			continue
		}
		t, err := layout.Clone()
		if err != nil {
			return Views{}, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := t.ParseFS(templatesFS, file); err != nil {
			return Views{}, fmt.Errorf("%s: %s: %w", op, file, err)
		}
		pages[path.Base(file)] = t
	}
	return Views{pages: pages, identity: identity}, nil
}

func (v Views) Render(
	w http.ResponseWriter, r *http.Request, status int, name string, p page,
) {
	const op = "Views.Render"
	log := slog.With("op", op, "page", name)

	t, ok := v.pages[name]
	if !ok {
		log.Error("unknown page")
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}

	p.User = v.currentUser(r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Error("failed to execute template", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func (v Views) Error(w http.ResponseWriter, r *http.Request, status int) {
	v.Render(w, r, status, "error.html", page{
		Status:  status,
		Message: http.StatusText(status),
	})
}

// Fail renders the page matching err. Unexpected errors are logged.
func (v Views) Fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		v.Error(w, r, http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), "request failed", "op", op, "err", err)
		v.Error(w, r, http.StatusInternalServerError)
	}
}

func (v Views) currentUser(r *http.Request) *domain.User {
	sess := currentSession(r.Context())
	if !sess.Authenticated() {
		return nil
	}
	u, err := v.identity.ReadUser(r.Context(), sess.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(r.Context(), "failed to read user",
				"op", "Views.currentUser", "err", err)
		}
		return nil
	}
	return &u
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
