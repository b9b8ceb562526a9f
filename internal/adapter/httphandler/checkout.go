package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CheckoutHandler only validates the card form. No payment is taken.
type CheckoutHandler struct {
	views Views
}

func RegisterCheckout(r chi.Router, views Views) {
	h := CheckoutHandler{views}
	r.With(RequireLogin).Get("/checkout", h.Page)
	r.With(RequireLogin).Post("/checkout", h.Checkout)
}

func (h CheckoutHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "checkout.html", page{Form: checkoutForm{}})
}

func (h CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	form := parseCheckoutForm(r)
	if errs := validateForm(form); errs != nil {
		form.CVV = ""
		h.views.Render(w, r, http.StatusBadRequest, "checkout.html",
			page{Form: form, Errors: errs})
		return
	}
	h.views.Render(w, r, http.StatusOK, "checkout_success.html", page{})
}
