package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"not found", NewNotFoundError("table not found"), ErrorTypeNotFound, http.StatusNotFound},
		{"invalid vote", NewInvalidVoteError("vote required", nil), ErrorTypeInvalidVote, http.StatusBadRequest},
		{"membership", NewMembershipMismatchError("wrong table"), ErrorTypeMembershipMismatch, http.StatusConflict},
		{"not everyone voted", NewNotEveryoneVotedError("pending", nil), ErrorTypeNotEveryoneVoted, http.StatusConflict},
		{"invalid state", NewInvalidStateError("closed"), ErrorTypeInvalidState, http.StatusConflict},
		{"conflicting active", NewConflictingActiveTableError("exists"), ErrorTypeConflictingActiveTable, http.StatusConflict},
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"conflict", NewConflictError("dup"), ErrorTypeConflict, http.StatusConflict},
		{"authentication", NewAuthenticationError("nope"), ErrorTypeAuthentication, http.StatusUnauthorized},
		{"rate limit", NewRateLimitError("slow down"), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewInternalError("failed to load table", cause)

	assert.Equal(t, "internal: failed to load table (connection refused)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "not_found: missing", NewNotFoundError("missing").Error())
}

func TestAs_WrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("close table 7: %w", NewNotEveryoneVotedError("pending votes", nil))

	appErr := As(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeNotEveryoneVoted, appErr.Type)
	assert.True(t, Is(wrapped, ErrorTypeNotEveryoneVoted))
	assert.False(t, Is(wrapped, ErrorTypeInvalidVote))
}

func TestAs_PlainErrorBecomesInternal(t *testing.T) {
	plain := stderrors.New("disk full")

	appErr := As(plain)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeInternal, appErr.Type)
	assert.ErrorIs(t, appErr, plain)

	assert.Nil(t, As(nil))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.False(t, Is(nil, ErrorTypeInternal))
}
