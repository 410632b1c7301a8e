package container

import (
	"context"
	"testing"
	"time"

	"pokertable/internal/config"
	"pokertable/internal/domain"
	"pokertable/internal/identity"
	"pokertable/internal/repository"
	"pokertable/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "development",
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		TablePolicy:    domain.TablePolicyMulti,
		VoteRange:      domain.DefaultVoteRange(),
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		redisURL    string
		expectRedis bool
	}{
		{"with Redis configured", "redis://" + mr.Addr() + "/0", true},
		{"without Redis configured", "", false},
		{"with invalid Redis URL", "invalid://redis-url", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RedisURL = tt.redisURL

			c, err := New(context.Background(), cfg, logger.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() {
				if c.RedisClient != nil {
					_ = c.RedisClient.Close()
				}
			})

			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.Equal(t, tt.expectRedis, c.Services.Cache.Enabled())
			assert.False(t, c.HasDatabase())
			assert.IsType(t, &repository.MemoryStore{}, c.Store)

			require.NotNil(t, c.Services)
			assert.NotNil(t, c.Services.Voting)
			assert.NotNil(t, c.Services.Tables)
			assert.NotNil(t, c.Services.Join)
			assert.NotNil(t, c.Services.Accounts)
			assert.NotNil(t, c.Services.Stories)
			assert.NotNil(t, c.Resolver)
			assert.Same(t, cfg, c.GetConfig())
		})
	}
}

func TestNew_WiresServicesTogether(t *testing.T) {
	c, err := New(context.Background(), testConfig(), logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	table, err := c.Services.Tables.CreateTable(ctx, "Sprint 12")
	require.NoError(t, err)

	p, _, err := c.Services.Join.JoinTable(ctx, identity.Session(uuid.NewString()), "Ana", table.ID)
	require.NoError(t, err)

	vote := 5
	_, err = c.Services.Voting.CastVote(ctx, p.ID, table.ID, &vote)
	require.NoError(t, err)
	require.NoError(t, c.Services.Tables.CloseTable(ctx, table.ID))

	families, err := c.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["pokertable_votes_cast_total"])
	assert.True(t, names["pokertable_tables_closed_total"])
}
