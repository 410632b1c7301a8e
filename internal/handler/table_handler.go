package handler

import (
	"net/http"

	"pokertable/internal/domain"
	"pokertable/internal/service"
	"pokertable/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// TableHandler serves the table lifecycle endpoints
type TableHandler struct {
	tables *service.TableService
	voting *service.VotingService
	logger *logger.Logger
}

// NewTableHandler creates a new table handler
func NewTableHandler(tables *service.TableService, voting *service.VotingService, logger *logger.Logger) *TableHandler {
	return &TableHandler{
		tables: tables,
		voting: voting,
		logger: logger,
	}
}

// RegisterRoutes mounts the table routes on r
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.CreateTable)
		r.Get("/active", h.GetActiveTable)
		r.Get("/open", h.ListOpenTables)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTable)
			r.Get("/status", h.GetTableStatus)
			r.Patch("/close", h.CloseTable)
			r.Patch("/reset", h.ResetVotes)
			r.Get("/participants", h.ListParticipants)
			r.Get("/results", h.GetResults)
		})
	})
	r.Get("/vote-range", h.GetVoteRange)
}

// CreateTable handles POST /tables
func (h *TableHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	table, err := h.tables.CreateTable(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, table)
}

// GetActiveTable handles GET /tables/active, creating a default table when none is open
func (h *TableHandler) GetActiveTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.tables.GetActiveTable(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, table)
}

// ListOpenTables handles GET /tables/open
func (h *TableHandler) ListOpenTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tables.ListActiveTables(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(tables))
}

// GetTable handles GET /tables/{id}
func (h *TableHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	table, err := h.tables.GetTable(r.Context(), tableID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, table)
}

// GetTableStatus handles GET /tables/{id}/status (polling endpoint)
func (h *TableHandler) GetTableStatus(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	status, err := h.tables.GetTableStatus(r.Context(), tableID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	etag := generateETag(status)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	respondJSON(w, http.StatusOK, status)
}

// CloseTable handles PATCH /tables/{id}/close
func (h *TableHandler) CloseTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.tables.CloseTable(r.Context(), tableID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetVotes handles PATCH /tables/{id}/reset
func (h *TableHandler) ResetVotes(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.tables.ResetAllVotes(r.Context(), tableID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListParticipants handles GET /tables/{id}/participants
func (h *TableHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	participants, err := h.voting.ListParticipants(r.Context(), tableID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(participants))
}

// GetResults handles GET /tables/{id}/results
func (h *TableHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	tableID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	records, err := h.tables.GetTableResults(r.Context(), tableID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(records))
}

// GetVoteRange handles GET /vote-range
func (h *TableHandler) GetVoteRange(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.voting.VoteRange())
}
