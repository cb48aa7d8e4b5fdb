package transport

import (
	"errors"
	"net/http"

	"inventory-api/internal/domain"
	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	msgInvalidLogin        = "Invalid login details."
	msgInvalidCredentials  = "Invalid username or password."
	msgInvalidRegistration = "Invalid registration details."
	msgRegistrationFailed  = "Registration failed."
	msgRegistered          = "User registered successfully."
)

// AuthHandler handles HTTP requests for login and registration
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth routes. Login is public behind
// loginLimiter; registration requires adminOnly.
func (h *AuthHandler) RegisterRoutes(r chi.Router, adminOnly, loginLimiter func(http.Handler) http.Handler) {
	r.Route("/api/Auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", h.Login)
		r.With(adminOnly).Post("/register", h.Register)
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials

	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Login validation failed",
			zap.Error(err),
			zap.Any("fields", middleware.FormatValidationErrors(err)),
		)
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidLogin)
		return
	}

	token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login rejected", zap.String("username", req.Username))
			middleware.RespondWithError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}

		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithErrorDetail(w, http.StatusInternalServerError, msgInternal, err)
		return
	}

	h.logger.Info("User logged in", zap.String("username", req.Username))
	middleware.RespondWithJSON(w, http.StatusOK, token)
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials

	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Registration validation failed",
			zap.Error(err),
			zap.Any("fields", middleware.FormatValidationErrors(err)),
		)
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidRegistration)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.logger.Debug("Registration rejected", zap.Strings("errors", verr.Errors))
			middleware.RespondWithErrors(w, http.StatusBadRequest, msgRegistrationFailed, verr.Errors)
			return
		}

		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithErrorDetail(w, http.StatusInternalServerError, msgInternal, err)
		return
	}

	admin, _ := middleware.GetUsername(r.Context())
	h.logger.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("registered_by", admin),
	)
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: msgRegistered})
}
