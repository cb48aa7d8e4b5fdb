package transport

import (
	"fmt"
	"net/http"

	"inventory-api/internal/domain"
	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the product routes. Reads need any valid token,
// writes need adminOnly.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authenticated, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/Products", func(r chi.Router) {
		r.With(authenticated).Get("/", h.List)
		r.With(authenticated).Get("/{id}", h.Get)
		r.With(adminOnly).Post("/", h.Create)
		r.With(adminOnly).Put("/{id}", h.Update)
		r.With(adminOnly).Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/Products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.productService.List(r.Context())
	if err != nil {
		respondProductError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, views)
}

// Get handles GET /api/Products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidProductID)
		return
	}

	view, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondProductError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Create handles POST /api/Products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if err := middleware.DecodeJSON(w, r, &input); err != nil {
		h.logger.Debug("Invalid product body", zap.Error(err))
		middleware.RespondWithErrors(w, http.StatusBadRequest, msgInvalidProductData, []string{err.Error()})
		return
	}

	actor, _ := middleware.GetUsername(r.Context())
	product, err := h.productService.Create(r.Context(), actor, input)
	if err != nil {
		respondProductError(w, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/Products/%d", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, h.productService.View(product))
}

// Update handles PUT /api/Products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidProductID)
		return
	}

	var input domain.ProductInput
	if err := middleware.DecodeJSON(w, r, &input); err != nil {
		h.logger.Debug("Invalid product body", zap.Error(err))
		middleware.RespondWithErrors(w, http.StatusBadRequest, msgInvalidProductData, []string{err.Error()})
		return
	}

	actor, _ := middleware.GetUsername(r.Context())
	if err := h.productService.Update(r.Context(), actor, id, input); err != nil {
		respondProductError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/Products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidProductID)
		return
	}

	actor, _ := middleware.GetUsername(r.Context())
	if err := h.productService.Delete(r.Context(), actor, id); err != nil {
		respondProductError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
