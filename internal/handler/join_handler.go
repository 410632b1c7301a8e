package handler

import (
	"net/http"

	"pokertable/internal/domain"
	"pokertable/internal/identity"
	"pokertable/internal/middleware"
	"pokertable/internal/service"
	"pokertable/pkg/errors"
	"pokertable/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// JoinHandler seats callers at tables
type JoinHandler struct {
	join     *service.JoinService
	resolver middleware.IdentityResolver
	logger   *logger.Logger
}

// NewJoinHandler creates a new join handler
func NewJoinHandler(join *service.JoinService, resolver middleware.IdentityResolver, logger *logger.Logger) *JoinHandler {
	return &JoinHandler{
		join:     join,
		resolver: resolver,
		logger:   logger,
	}
}

// RegisterRoutes mounts the join route on r behind identity resolution
func (h *JoinHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.Identity(h.resolver, h.logger)).Post("/tables/{id}/join", h.Join)
}

// Join handles POST /tables/{id}/join
func (h *JoinHandler) Join(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	ident, ok := identity.FromContext(r.Context())
	if !ok {
		respondError(w, r, h.logger, errors.NewAuthenticationError("Caller identity is required"))
		return
	}

	var req domain.JoinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	participant, table, err := h.join.JoinTable(r.Context(), ident, req.Name, tableID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	response := domain.JoinResponse{
		Participant: participant,
		Table:       table,
	}
	if ident.Scheme == identity.SchemeSession {
		response.SessionToken = ident.Key
	}
	respondJSON(w, http.StatusOK, response)
}
