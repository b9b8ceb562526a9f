package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/niksmo/storefront/internal/core/port"
)

type Services struct {
	Catalog  port.Catalog
	Identity port.Identity
	Basket   port.Basket
}

type RouterOpts struct {
	Images   port.ImageStorage
	Sessions Sessions
	// StaticPrefix and Static serve locally stored images. Both are empty
	// when images live in an external bucket.
	StaticPrefix string
	Static       http.Handler
	Tracing      bool
}

func NewRouter(s Services, opts RouterOpts) (http.Handler, error) {
	views, err := NewViews(s.Identity, opts.Images)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Static != nil && opts.StaticPrefix != "" {
		r.Handle(opts.StaticPrefix+"*", opts.Static)
	}

	r.Group(func(r chi.Router) {
		r.Use(AllowForm)
		r.Use(opts.Sessions.Load)

		RegisterProducts(r, s.Catalog, opts.Images, views)
		RegisterBasket(r, s.Basket, opts.Sessions, views)
		RegisterAuth(r, s.Identity, opts.Sessions, views)
		RegisterCheckout(r, views)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		views.Error(w, r, http.StatusNotFound)
	})

	if opts.Tracing {
		return otelhttp.NewHandler(r, "storefront"), nil
	}
	return r, nil
}
