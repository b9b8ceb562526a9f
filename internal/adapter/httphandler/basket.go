package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

type BasketHandler struct {
	basket   port.Basket
	sessions Sessions
	views    Views
}

func RegisterBasket(
	r chi.Router, basket port.Basket, sessions Sessions, views Views,
) {
	h := BasketHandler{basket, sessions, views}
	r.Get("/basket", h.Show)
	r.Post("/add_to_basket/{productID}", h.Add)
	r.Post("/remove_from_basket/{productID}", h.Remove)
}

func (h BasketHandler) Show(w http.ResponseWriter, r *http.Request) {
	const op = "BasketHandler.Show"

	ctx := r.Context()
	sess := currentSession(ctx)

	var (
		summary domain.BasketSummary
		err     error
	)
	if sess.Authenticated() {
		summary, err = h.basket.ComputeUserBasket(ctx, sess.UserID)
	} else {
		summary, err = h.basket.ComputeAnonymousBasket(ctx, sess.Basket)
	}
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "basket.html", page{
		Products: summary.Products,
		Total:    summary.Total.StringFixed(2),
	})
}

func (h BasketHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "BasketHandler.Add"

	id, ok := productIDParam(r)
	if !ok {
		h.views.Error(w, r, http.StatusNotFound)
		return
	}

	ctx := r.Context()
	sess := currentSession(ctx)

	var err error
	if sess.Authenticated() {
		err = h.basket.AddToUserBasket(ctx, sess.UserID, id)
	} else {
		err = h.basket.AddToAnonymousBasket(ctx, &sess.Basket, id)
		if err == nil {
			err = h.sessions.Save(ctx, sess)
		}
	}
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h BasketHandler) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "BasketHandler.Remove"

	id, ok := productIDParam(r)
	if !ok {
		h.views.Error(w, r, http.StatusNotFound)
		return
	}

	ctx := r.Context()
	sess := currentSession(ctx)

	var err error
	if sess.Authenticated() {
		err = h.basket.RemoveFromUserBasket(ctx, sess.UserID, id)
	} else {
		h.basket.RemoveFromAnonymousBasket(&sess.Basket, id)
		err = h.sessions.Save(ctx, sess)
	}
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	http.Redirect(w, r, "/basket", http.StatusSeeOther)
}
