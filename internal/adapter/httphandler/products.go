package httphandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/adapter/images"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const maxUploadSize = 10 << 20

type ProductsHandler struct {
	catalog port.Catalog
	images  port.ImageStorage
	views   Views
}

func RegisterProducts(
	r chi.Router, catalog port.Catalog, imgs port.ImageStorage, views Views,
) {
	h := ProductsHandler{catalog, imgs, views}
	r.Get("/", h.List)
	r.Get("/sort_products/{sortID}", h.Sort)
	r.Post("/search", h.Search)
	r.Get("/display_product/{productID}", h.Display)
	r.With(RequireLogin).Get("/add_product", h.NewProduct)
	r.With(RequireLogin).Post("/add_product", h.CreateProduct)
}

func (h ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.List"

	ps, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "products.html", page{Products: ps})
}

func (h ProductsHandler) Sort(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Sort"

	key := domain.SortKey(chi.URLParam(r, "sortID"))
	ps, err := h.catalog.SortProducts(r.Context(), key)
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "products.html", page{Products: ps})
}

func (h ProductsHandler) Search(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Search"

	ps, err := h.catalog.SearchProducts(r.Context(), r.PostFormValue("search_terms"))
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "products.html", page{Products: ps})
}

func (h ProductsHandler) Display(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Display"

	id, ok := productIDParam(r)
	if !ok {
		h.views.Error(w, r, http.StatusNotFound)
		return
	}

	p, err := h.catalog.ReadProduct(r.Context(), id)
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "display_product.html", page{Product: p})
}

func (h ProductsHandler) NewProduct(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "add_product.html",
		page{Form: addProductForm{}})
}

func (h ProductsHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.CreateProduct"

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.views.Render(w, r, http.StatusBadRequest, "add_product.html", page{
			Form:   addProductForm{},
			Errors: map[string]string{"image": "Upload a jpg, jpeg or png image."},
		})
		return
	}

	form := parseAddProductForm(r)
	errs := validateForm(form)
	if errs == nil {
		errs = make(map[string]string)
	}

	file, header, err := r.FormFile("image")
	var imageName, contentType string
	if err != nil {
		errs["image"] = "This field is required."
	} else {
		defer file.Close()
		imageName, err = images.CleanName(header.Filename)
		if err == nil {
			contentType, err = images.ContentType(imageName)
		}
		if err != nil {
			errs["image"] = "Upload a jpg, jpeg or png image."
		}
	}

	if len(errs) != 0 {
		h.views.Render(w, r, http.StatusBadRequest, "add_product.html",
			page{Form: form, Errors: errs})
		return
	}

	price, _ := strconv.ParseFloat(form.Price, 64)
	footprint, _ := strconv.ParseFloat(form.CarbonFootprint, 64)

	ctx := r.Context()
	if err := h.images.SaveImage(ctx, imageName, file, contentType); err != nil {
		h.views.Fail(w, r, op, err)
		return
	}

	_, err = h.catalog.CreateProduct(ctx, domain.Product{
		Name:            form.Name,
		Price:           price,
		Description:     form.Description,
		CarbonFootprint: footprint,
		Image:           imageName,
	})
	if err != nil {
		h.views.Fail(w, r, op, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func productIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
