package service

import (
	"context"
	"testing"

	"pokertable/internal/domain"
	"pokertable/internal/identity"
	"pokertable/internal/metrics"
	"pokertable/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store  *repository.MemoryStore
	voting *VotingService
	tables *TableService
	join   *JoinService
}

func newTestEnv(t *testing.T, policy domain.TablePolicy) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	cache := NewCacheService(nil, zap.NewNop())
	log := zap.NewNop()

	return &testEnv{
		store:  store,
		voting: NewVotingService(store, cache, metrics.Nop{}, domain.DefaultVoteRange(), log),
		tables: NewTableService(store, cache, metrics.Nop{}, policy, log),
		join:   NewJoinService(store, cache, metrics.Nop{}, log),
	}
}

func intPtr(v int) *int { return &v }

func (e *testEnv) createTable(t *testing.T, name string) *domain.Table {
	t.Helper()
	table, err := e.tables.CreateTable(context.Background(), name)
	require.NoError(t, err)
	return table
}

func (e *testEnv) seat(t *testing.T, session string, tableID int64) *domain.Participant {
	t.Helper()
	p, _, err := e.join.JoinTable(context.Background(), identity.Session(session), session, tableID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) vote(t *testing.T, p *domain.Participant, tableID int64, v int) {
	t.Helper()
	_, err := e.voting.CastVote(context.Background(), p.ID, tableID, intPtr(v))
	require.NoError(t, err)
}

func (e *testEnv) reload(t *testing.T, id int64) *domain.Participant {
	t.Helper()
	p, err := e.voting.GetParticipant(context.Background(), id)
	require.NoError(t, err)
	return p
}
