package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/service"
)

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Images      []model.Image   `json:"images"`
}

type productPatchRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Stock       *int             `json:"stock"`
	Images      []model.Image    `json:"images"`
}

// ListProducts обрабатывает GET /api/v1/products.
// Параметры: keyword, category, price[gte], price[lte], page.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := h.service.ListProducts(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"products":      page.Products,
		"productCount":  page.ProductCount,
		"resultPerPage": page.PerPage,
	})
}

// GetProduct обрабатывает GET /api/v1/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"product": product})
}

// CreateProduct обрабатывает POST /api/v1/admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), p.ID, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"product": product})
}

// UpdateProduct обрабатывает PUT /api/v1/admin/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req productPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"product": product})
}

// DeleteProduct обрабатывает DELETE /api/v1/admin/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Product is deleted"})
}

func parseProductQuery(v url.Values) (service.ProductQuery, error) {
	q := service.ProductQuery{
		Keyword:  v.Get("keyword"),
		Category: v.Get("category"),
		Page:     1,
	}

	if raw := v.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return q, apperror.Validation("Invalid page: " + raw)
		}
		q.Page = page
	}

	var err error
	if q.MinPrice, err = parsePrice(v, "price[gte]"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parsePrice(v, "price[lte]"); err != nil {
		return q, err
	}
	return q, nil
}

func parsePrice(v url.Values, key string) (*decimal.Decimal, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.Validation("Invalid " + key + ": " + raw)
	}
	return &d, nil
}
