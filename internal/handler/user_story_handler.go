package handler

import (
	"net/http"

	"pokertable/internal/domain"
	"pokertable/internal/service"
	"pokertable/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// UserStoryHandler serves CRUD for the stories attached to a table
type UserStoryHandler struct {
	stories *service.UserStoryService
	logger  *logger.Logger
}

func NewUserStoryHandler(stories *service.UserStoryService, logger *logger.Logger) *UserStoryHandler {
	return &UserStoryHandler{stories: stories, logger: logger}
}

func (h *UserStoryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tables/{id}/stories", h.Create)
	r.Get("/tables/{id}/stories", h.ListByTable)

	r.Route("/stories/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

func (h *UserStoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.UserStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	story, err := h.stories.Create(r.Context(), tableID, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, story)
}

func (h *UserStoryHandler) ListByTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	stories, err := h.stories.ListByTable(r.Context(), tableID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(stories))
}

func (h *UserStoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	story, err := h.stories.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, story)
}

func (h *UserStoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.UserStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	story, err := h.stories.Update(r.Context(), id, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, story)
}

func (h *UserStoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.stories.Delete(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
