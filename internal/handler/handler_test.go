package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pokertable/internal/config"
	"pokertable/internal/container"
	"pokertable/internal/domain"
	"pokertable/internal/identity"
	"pokertable/internal/middleware"
	"pokertable/pkg/errors"
	"pokertable/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t       *testing.T
	c       *container.Container
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := &config.Config{
		Environment:    "development",
		JWTSecret:      "handler-test-secret",
		JWTTTL:         time.Hour,
		TablePolicy:    domain.TablePolicyMulti,
		VoteRange:      domain.DefaultVoteRange(),
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	c, err := container.New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	log := c.GetLogger()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/health", NewHealthHandler(c).Check)
	r.Route("/api/v1", func(r chi.Router) {
		NewTableHandler(c.Services.Tables, c.Services.Voting, log).RegisterRoutes(r)
		NewParticipantHandler(c.Services.Voting, c.Services.Tables, c.Services.Join, log).RegisterRoutes(r)
		NewJoinHandler(c.Services.Join, c.Resolver, log).RegisterRoutes(r)
		NewAuthHandler(c.Services.Accounts, c.Tokens, log).RegisterRoutes(r)
		NewUserStoryHandler(c.Services.Stories, log).RegisterRoutes(r)
	})

	return &testAPI{t: t, c: c, handler: r}
}

func (a *testAPI) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createTable(name string) domain.Table {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/tables", domain.CreateTableRequest{Name: name}, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var table domain.Table
	decode(a.t, rec, &table)
	return table
}

func (a *testAPI) join(tableID int64, name, session string) domain.JoinResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, fmt.Sprintf("/tables/%d/join", tableID), domain.JoinRequest{Name: name},
		map[string]string{identity.HeaderSessionToken: session})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.JoinResponse
	decode(a.t, rec, &resp)
	return resp
}

func (a *testAPI) vote(participantID, tableID int64, vote *int) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPatch, fmt.Sprintf("/participants/%d/vote", participantID),
		domain.VoteRequest{TableID: tableID, Vote: vote}, nil)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorType {
	t.Helper()
	var resp errors.ErrorResponse
	decode(t, rec, &resp)
	return resp.Error.Type
}

func intPtr(v int) *int { return &v }

func TestRoundLifecycle(t *testing.T) {
	api := newTestAPI(t)
	table := api.createTable("Sprint 42")
	assert.False(t, table.Closed)

	// first caller has no session yet and gets one minted
	rec := api.do(http.MethodPost, fmt.Sprintf("/tables/%d/join", table.ID), domain.JoinRequest{Name: "Ana"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ana domain.JoinResponse
	decode(t, rec, &ana)
	require.NotEmpty(t, ana.SessionToken)
	assert.Equal(t, ana.SessionToken, rec.Header().Get(identity.HeaderSessionToken))
	assert.Equal(t, table.ID, *ana.Participant.TableID)

	bob := api.join(table.ID, "Bob", uuid.NewString())

	assert.Equal(t, http.StatusNoContent, api.vote(ana.Participant.ID, table.ID, intPtr(5)).Code)
	assert.Equal(t, http.StatusNoContent, api.vote(bob.Participant.ID, table.ID, intPtr(8)).Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d/status", table.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status domain.TableStatus
	decode(t, rec, &status)
	assert.Equal(t, 2, status.ParticipantCount)
	assert.Equal(t, 2, status.VotedCount)
	assert.True(t, status.ReadyToClose)

	rec = api.do(http.MethodPatch, fmt.Sprintf("/tables/%d/close", table.ID), nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d/results", table.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []domain.ParticipationRecord
	decode(t, rec, &results)
	votes := map[int64]int{}
	for _, r := range results {
		votes[r.ParticipantID] = r.Vote
	}
	assert.Equal(t, map[int64]int{ana.Participant.ID: 5, bob.Participant.ID: 8}, votes)

	rec = api.do(http.MethodGet, fmt.Sprintf("/participants/%d/has-voted", ana.Participant.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var voteStatus domain.VoteStatus
	decode(t, rec, &voteStatus)
	assert.False(t, voteStatus.HasVoted)

	rec = api.do(http.MethodGet, fmt.Sprintf("/participants/%d/past-tables", bob.Participant.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var past []domain.Table
	decode(t, rec, &past)
	require.Len(t, past, 1)
	assert.Equal(t, table.ID, past[0].ID)
	assert.True(t, past[0].Closed)

	rec = api.do(http.MethodGet, fmt.Sprintf("/participants/%d/history", bob.Participant.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.ParticipationRecord
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, 8, history[0].Vote)
}

func TestCloseTable_Rejections(t *testing.T) {
	api := newTestAPI(t)

	empty := api.createTable("Empty")
	rec := api.do(http.MethodPatch, fmt.Sprintf("/tables/%d/close", empty.ID), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.ErrorTypeNotEveryoneVoted, errorType(t, rec))

	table := api.createTable("Pending")
	ana := api.join(table.ID, "Ana", uuid.NewString())
	bob := api.join(table.ID, "Bob", uuid.NewString())
	require.Equal(t, http.StatusNoContent, api.vote(ana.Participant.ID, table.ID, intPtr(3)).Code)

	rec = api.do(http.MethodPatch, fmt.Sprintf("/tables/%d/close", table.ID), nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	var resp errors.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, errors.ErrorTypeNotEveryoneVoted, resp.Error.Type)
	assert.Equal(t, []interface{}{float64(bob.Participant.ID)}, resp.Error.Details["pending_participant_ids"])

	// the rejected close left the vote in place
	rec = api.do(http.MethodGet, fmt.Sprintf("/participants/%d", ana.Participant.ID), nil, nil)
	var p domain.Participant
	decode(t, rec, &p)
	require.NotNil(t, p.Vote)
	assert.Equal(t, 3, *p.Vote)

	rec = api.do(http.MethodPatch, "/tables/9999/close", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCastVote_Errors(t *testing.T) {
	api := newTestAPI(t)
	table := api.createTable("A")
	other := api.createTable("B")
	ana := api.join(table.ID, "Ana", uuid.NewString())

	tests := []struct {
		name          string
		participantID string
		body          interface{}
		wantStatus    int
		wantType      errors.ErrorType
	}{
		{"missing vote", fmt.Sprint(ana.Participant.ID), domain.VoteRequest{TableID: table.ID}, http.StatusBadRequest, errors.ErrorTypeInvalidVote},
		{"out of range", fmt.Sprint(ana.Participant.ID), domain.VoteRequest{TableID: table.ID, Vote: intPtr(14)}, http.StatusBadRequest, errors.ErrorTypeInvalidVote},
		{"wrong table", fmt.Sprint(ana.Participant.ID), domain.VoteRequest{TableID: other.ID, Vote: intPtr(5)}, http.StatusConflict, errors.ErrorTypeMembershipMismatch},
		{"unknown participant", "9999", domain.VoteRequest{TableID: table.ID, Vote: intPtr(5)}, http.StatusNotFound, errors.ErrorTypeNotFound},
		{"unknown table", fmt.Sprint(ana.Participant.ID), domain.VoteRequest{TableID: 9999, Vote: intPtr(5)}, http.StatusNotFound, errors.ErrorTypeNotFound},
		{"malformed id", "abc", domain.VoteRequest{TableID: table.ID, Vote: intPtr(5)}, http.StatusBadRequest, errors.ErrorTypeValidation},
		{"malformed body", fmt.Sprint(ana.Participant.ID), "not an object", http.StatusBadRequest, errors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPatch, "/participants/"+tt.participantID+"/vote", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, errorType(t, rec))
		})
	}
}

func TestJoin_Rules(t *testing.T) {
	api := newTestAPI(t)
	table := api.createTable("Planning")
	session := uuid.NewString()

	first := api.join(table.ID, "Ana", session)
	require.Equal(t, http.StatusNoContent, api.vote(first.Participant.ID, table.ID, intPtr(2)).Code)

	// rejoining the same table keeps the vote
	again := api.join(table.ID, "Ana", session)
	assert.Equal(t, first.Participant.ID, again.Participant.ID)
	require.NotNil(t, again.Participant.Vote)

	// moving to another table clears it
	moved := api.join(api.createTable("Other").ID, "Ana", session)
	assert.Equal(t, first.Participant.ID, moved.Participant.ID)
	assert.Nil(t, moved.Participant.Vote)

	rec := api.do(http.MethodPost, "/tables/9999/join", domain.JoinRequest{Name: "Ana"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("/tables/%d/join", table.ID), domain.JoinRequest{Name: "Eve"},
		map[string]string{identity.HeaderSessionToken: "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrorTypeValidation, errorType(t, rec))
}

func TestCreateParticipant(t *testing.T) {
	api := newTestAPI(t)
	table := api.createTable("Direct")

	rec := api.do(http.MethodPost, fmt.Sprintf("/tables/%d/participants", table.ID), domain.CreateParticipantRequest{Name: "Cleo"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p domain.Participant
	decode(t, rec, &p)
	assert.Equal(t, "Cleo", p.Name)

	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d/participants", table.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var participants []domain.Participant
	decode(t, rec, &participants)
	assert.Len(t, participants, 1)

	rec = api.do(http.MethodPost, "/tables/9999/participants", domain.CreateParticipantRequest{Name: "Cleo"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTableEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/tables/open", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = api.do(http.MethodGet, "/tables/active", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var active domain.Table
	decode(t, rec, &active)
	assert.Equal(t, domain.DefaultTableName, active.Name)

	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d", active.ID), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d/results", active.ID), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.ErrorTypeInvalidState, errorType(t, rec))

	rec = api.do(http.MethodPatch, fmt.Sprintf("/tables/%d/reset", active.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/tables/9999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/vote-range", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var voteRange domain.VoteRange
	decode(t, rec, &voteRange)
	assert.Equal(t, domain.DefaultVoteRange(), voteRange)
}

func TestTableStatus_ETag(t *testing.T) {
	api := newTestAPI(t)
	table := api.createTable("Polling")

	rec := api.do(http.MethodGet, fmt.Sprintf("/tables/%d/status", table.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d/status", table.ID), nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)

	api.join(table.ID, "Ana", uuid.NewString())
	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d/status", table.ID), nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountFlow(t *testing.T) {
	api := newTestAPI(t)

	register := domain.RegisterRequest{Name: "Ana", Email: "Ana@Example.com", Password: "secret1"}
	rec := api.do(http.MethodPost, "/auth/register", register, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/auth/register", register, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.ErrorTypeConflict, errorType(t, rec))

	rec = api.do(http.MethodPost, "/auth/login", domain.LoginRequest{Email: "ana@example.com", Password: "wrong!!"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/auth/login", domain.LoginRequest{Email: "ana@example.com", Password: "secret1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var login domain.LoginResponse
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)
	bearer := map[string]string{"Authorization": "Bearer " + login.Token}

	rec = api.do(http.MethodGet, "/auth/me", nil, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.Participant
	decode(t, rec, &me)
	assert.Equal(t, login.Participant.ID, me.ID)

	rec = api.do(http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// an authenticated join seats the account, not a new session participant
	table := api.createTable("Accounts")
	rec = api.do(http.MethodPost, fmt.Sprintf("/tables/%d/join", table.ID), domain.JoinRequest{}, bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var joined domain.JoinResponse
	decode(t, rec, &joined)
	assert.Equal(t, me.ID, joined.Participant.ID)
	assert.Empty(t, joined.SessionToken)
}

func TestUserStories(t *testing.T) {
	api := newTestAPI(t)
	table := api.createTable("Backlog")

	rec := api.do(http.MethodPost, fmt.Sprintf("/tables/%d/stories", table.ID),
		domain.UserStoryRequest{Title: "Login page", EstimatedPoints: intPtr(3)}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var story domain.UserStory
	decode(t, rec, &story)

	rec = api.do(http.MethodPut, fmt.Sprintf("/stories/%d", story.ID),
		domain.UserStoryRequest{Title: "Login page", Description: "with SSO", EstimatedPoints: intPtr(5)}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &story)
	assert.Equal(t, 5, *story.EstimatedPoints)

	rec = api.do(http.MethodGet, fmt.Sprintf("/tables/%d/stories", table.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stories []domain.UserStory
	decode(t, rec, &stories)
	assert.Len(t, stories, 1)

	rec = api.do(http.MethodPost, fmt.Sprintf("/tables/%d/stories", table.ID),
		domain.UserStoryRequest{Title: "Bad", EstimatedPoints: intPtr(-1)}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, fmt.Sprintf("/stories/%d", story.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/stories/%d", story.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["memory"])
	assert.Equal(t, "disabled", resp.Components["redis"])
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/tables/9999", nil, map[string]string{"X-Request-ID": "req-1"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errors.ErrorResponse
	decode(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.NotEmpty(t, resp.Error.Timestamp)
}
