package handler

import (
	"net/http"

	"pokertable/internal/domain"
	"pokertable/internal/middleware"
	"pokertable/internal/service"
	"pokertable/pkg/errors"
	"pokertable/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// AuthHandler handles account registration and login
type AuthHandler struct {
	accounts *service.AccountService
	tokens   middleware.TokenValidator
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *service.AccountService, tokens middleware.TokenValidator, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
	}
}

// RegisterRoutes mounts the auth routes on r
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.tokens, h.logger)).Get("/me", h.Me)
	})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	participant, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, participant)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	response, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, response)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondError(w, r, h.logger, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	participant, err := h.accounts.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, errors.ErrorTypeNotFound) {
			err = errors.NewAuthenticationError("Account no longer exists")
		}
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, participant)
}
