package handler

import (
	"net/http"

	"pokertable/internal/domain"
	"pokertable/internal/service"
	"pokertable/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ParticipantHandler serves voting and participant history endpoints
type ParticipantHandler struct {
	voting *service.VotingService
	tables *service.TableService
	join   *service.JoinService
	logger *logger.Logger
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(voting *service.VotingService, tables *service.TableService, join *service.JoinService, logger *logger.Logger) *ParticipantHandler {
	return &ParticipantHandler{
		voting: voting,
		tables: tables,
		join:   join,
		logger: logger,
	}
}

// RegisterRoutes mounts the participant routes on r
func (h *ParticipantHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tables/{id}/participants", h.CreateParticipant)

	r.Route("/participants/{id}", func(r chi.Router) {
		r.Get("/", h.GetParticipant)
		r.Patch("/vote", h.CastVote)
		r.Get("/has-voted", h.HasVoted)
		r.Get("/history", h.GetHistory)
		r.Get("/past-tables", h.GetPastTables)
	})
}

// CreateParticipant handles POST /tables/{id}/participants
func (h *ParticipantHandler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.CreateParticipantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	participant, err := h.join.CreateParticipant(r.Context(), tableID, req.Name)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, participant)
}

// GetParticipant handles GET /participants/{id}
func (h *ParticipantHandler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	participantID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	participant, err := h.voting.GetParticipant(r.Context(), participantID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, participant)
}

// CastVote handles PATCH /participants/{id}/vote
func (h *ParticipantHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	participantID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.VoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if _, err := h.voting.CastVote(r.Context(), participantID, req.TableID, req.Vote); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HasVoted handles GET /participants/{id}/has-voted
func (h *ParticipantHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	participantID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	voted, err := h.voting.HasCastVote(r.Context(), participantID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.VoteStatus{
		ParticipantID: participantID,
		HasVoted:      voted,
	})
}

// GetHistory handles GET /participants/{id}/history
func (h *ParticipantHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	participantID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	records, err := h.tables.GetParticipationHistory(r.Context(), participantID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(records))
}

// GetPastTables handles GET /participants/{id}/past-tables
func (h *ParticipantHandler) GetPastTables(w http.ResponseWriter, r *http.Request) {
	participantID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	tables, err := h.tables.GetPastTablesForParticipant(r.Context(), participantID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(tables))
}
