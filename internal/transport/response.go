package transport

import (
	"errors"
	"net/http"
	"strconv"

	"inventory-api/internal/auth"
	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	msgProductNotFound    = "Product not found."
	msgProductIDMismatch  = "Product ID mismatch."
	msgInvalidProductData = "Invalid product data."
	msgInvalidProductID   = "Invalid product ID."
	msgProductConflict    = "Product was modified by another request."
	msgUnauthorized       = "Unauthorized."
	msgInternal           = "An error occurred while processing the request."
)

// MessageResponse is the body of responses that only carry a message
type MessageResponse struct {
	Message string `json:"message"`
}

// respondProductError maps product service errors to HTTP responses
func respondProductError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		middleware.RespondWithErrors(w, http.StatusBadRequest, msgInvalidProductData, verr.Errors)
	case errors.Is(err, service.ErrProductIDMismatch):
		middleware.RespondWithError(w, http.StatusBadRequest, msgProductIDMismatch)
	case errors.Is(err, service.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
	case errors.Is(err, service.ErrConflict):
		middleware.RespondWithError(w, http.StatusConflict, msgProductConflict)
	case errors.Is(err, auth.ErrUnauthenticated):
		logger.Warn("Token subject is not a known user", zap.Error(err))
		middleware.RespondWithError(w, http.StatusUnauthorized, msgUnauthorized)
	default:
		logger.Error("Product request failed", zap.Error(err))
		middleware.RespondWithErrorDetail(w, http.StatusInternalServerError, msgInternal, err)
	}
}

// productID parses the {id} route parameter
func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
