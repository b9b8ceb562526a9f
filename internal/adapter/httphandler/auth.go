package httphandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

type AuthHandler struct {
	identity port.Identity
	sessions Sessions
	views    Views
}

func RegisterAuth(
	r chi.Router, identity port.Identity, sessions Sessions, views Views,
) {
	h := AuthHandler{identity, sessions, views}
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/signup", h.SignupPage)
	r.Post("/signup", h.Signup)
	r.With(RequireLogin).Get("/logout", h.Logout)
}

func (h AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "login.html", page{Form: loginForm{}})
}

func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Login"

	form := parseLoginForm(r)
	if errs := validateForm(form); errs != nil {
		h.views.Render(w, r, http.StatusBadRequest, "login.html",
			page{Form: form, Errors: errs})
		return
	}

	ctx := r.Context()
	u, err := h.identity.ReadUserByUsername(ctx, form.Username)
	if err != nil {
		if isNotFound(err) {
			target := "/signup"
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		h.views.Fail(w, r, op, err)
		return
	}

	if !h.identity.VerifyPassword(u, form.Password) {
		form.Password = ""
		h.views.Render(w, r, http.StatusUnauthorized, "login.html", page{
			Form:   form,
			Errors: map[string]string{"password": domain.ErrInvalidCredentials.Error()},
		})
		return
	}

	if err := h.sessions.Login(w, r, u.ID, form.RememberMe); err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
}

func (h AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "signup.html", page{Form: signupForm{}})
}

func (h AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Signup"

	form := parseSignupForm(r)
	if errs := validateForm(form); errs != nil {
		form.Password, form.Confirm = "", ""
		h.views.Render(w, r, http.StatusBadRequest, "signup.html",
			page{Form: form, Errors: errs})
		return
	}

	_, err := h.identity.Register(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.views.Fail(w, r, op, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Logout"

	if err := h.sessions.Logout(w, r); err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") ||
		strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
