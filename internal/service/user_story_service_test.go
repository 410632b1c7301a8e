package service

import (
	"context"
	"testing"

	"pokertable/internal/domain"
	"pokertable/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserStoryService_CRUD(t *testing.T) {
	env := newTestEnv(t, domain.TablePolicyMulti)
	svc := NewUserStoryService(env.store, zap.NewNop())
	ctx := context.Background()
	table := env.createTable(t, "T")

	story, err := svc.Create(ctx, table.ID, domain.UserStoryRequest{Title: " Checkout ", Description: "Pay by card"})
	require.NoError(t, err)
	assert.Equal(t, "Checkout", story.Title)
	assert.Nil(t, story.EstimatedPoints)

	updated, err := svc.Update(ctx, story.ID, domain.UserStoryRequest{Title: "Checkout", Description: "Pay by card", EstimatedPoints: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, *updated.EstimatedPoints)

	got, err := svc.Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	list, err := svc.ListByTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, story.ID))
	_, err = svc.Get(ctx, story.ID)
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, story.ID), errors.ErrorTypeNotFound))
}

func TestUserStoryService_Validation(t *testing.T) {
	env := newTestEnv(t, domain.TablePolicyMulti)
	svc := NewUserStoryService(env.store, zap.NewNop())
	ctx := context.Background()
	table := env.createTable(t, "T")

	tests := []struct {
		name    string
		tableID int64
		req     domain.UserStoryRequest
		want    errors.ErrorType
	}{
		{"missing title", table.ID, domain.UserStoryRequest{}, errors.ErrorTypeValidation},
		{"negative points", table.ID, domain.UserStoryRequest{Title: "x", EstimatedPoints: intPtr(-1)}, errors.ErrorTypeValidation},
		{"missing table", 9999, domain.UserStoryRequest{Title: "x"}, errors.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.tableID, tt.req)
			assert.Equal(t, tt.want, errors.TypeOf(err))
		})
	}

	zero, err := svc.Create(ctx, table.ID, domain.UserStoryRequest{Title: "spike", EstimatedPoints: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, *zero.EstimatedPoints)

	_, err = svc.ListByTable(ctx, 9999)
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
	_, err = svc.Update(ctx, 9999, domain.UserStoryRequest{Title: "x"})
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
}
