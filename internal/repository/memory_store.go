package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pokertable/internal/domain"
)

// memoryState is the whole dataset of a MemoryStore
type memoryState struct {
	participants   map[int64]*domain.Participant
	tables         map[int64]*domain.Table
	participations map[int64]*domain.ParticipationRecord
	stories        map[int64]*domain.UserStory
	nextID         int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		participants:   make(map[int64]*domain.Participant),
		tables:         make(map[int64]*domain.Table),
		participations: make(map[int64]*domain.ParticipationRecord),
		stories:        make(map[int64]*domain.UserStory),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	c.nextID = s.nextID
	for id, p := range s.participants {
		c.participants[id] = copyParticipant(p)
	}
	for id, t := range s.tables {
		c.tables[id] = copyTable(t)
	}
	for id, r := range s.participations {
		rec := *r
		c.participations[id] = &rec
	}
	for id, st := range s.stories {
		c.stories[id] = copyStory(st)
	}
	return c
}

func (s *memoryState) newID() int64 {
	s.nextID++
	return s.nextID
}

// MemoryStore is a Store kept in process memory. Every call, and every
// transaction as a whole, runs under one mutex so transactions are serial.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
	now   func() time.Time
	repos *Repositories
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		state: newMemoryState(),
		now:   time.Now,
	}
	s.repos = s.bind(false)
	return s
}

func (s *MemoryStore) bind(inTx bool) *Repositories {
	m := &memoryRepo{store: s, inTx: inTx}
	return &Repositories{
		Participants:   &memoryParticipantRepository{m},
		Tables:         &memoryTableRepository{m},
		Participations: &memoryParticipationRepository{m},
		UserStories:    &memoryUserStoryRepository{m},
	}
}

// Repositories returns repositories that lock per call
func (s *MemoryStore) Repositories() *Repositories {
	return s.repos
}

// WithTx runs fn holding the store lock. The state is restored when fn fails.
func (s *MemoryStore) WithTx(ctx context.Context, fn TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(ctx, s.bind(true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// Health always succeeds
func (s *MemoryStore) Health(ctx context.Context) error {
	return nil
}

type memoryRepo struct {
	store *MemoryStore
	inTx  bool
}

// lock returns the unlock function; inside a transaction the store lock is already held
func (m *memoryRepo) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.store.mu.Lock()
	return m.store.mu.Unlock
}

func (m *memoryRepo) state() *memoryState {
	return m.store.state
}

func copyParticipant(p *domain.Participant) *domain.Participant {
	c := *p
	if p.Email != nil {
		email := *p.Email
		c.Email = &email
	}
	if p.TableID != nil {
		tableID := *p.TableID
		c.TableID = &tableID
	}
	if p.Vote != nil {
		vote := *p.Vote
		c.Vote = &vote
	}
	return &c
}

func copyTable(t *domain.Table) *domain.Table {
	c := *t
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		c.ClosedAt = &closedAt
	}
	return &c
}

func copyStory(s *domain.UserStory) *domain.UserStory {
	c := *s
	if s.EstimatedPoints != nil {
		points := *s.EstimatedPoints
		c.EstimatedPoints = &points
	}
	return &c
}

type memoryParticipantRepository struct{ *memoryRepo }

func (r *memoryParticipantRepository) GetByID(ctx context.Context, id int64, lock LockMode) (*domain.Participant, error) {
	defer r.lock()()

	p, ok := r.state().participants[id]
	if !ok {
		return nil, nil
	}
	return copyParticipant(p), nil
}

func (r *memoryParticipantRepository) FindBySessionOrEmail(ctx context.Context, key string, lock LockMode) (*domain.Participant, error) {
	defer r.lock()()

	var found *domain.Participant
	for _, p := range r.state().participants {
		if p.SessionID == key || (p.Email != nil && *p.Email == key) {
			if found == nil || p.ID < found.ID {
				found = p
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	return copyParticipant(found), nil
}

func (r *memoryParticipantRepository) GetByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	defer r.lock()()

	for _, p := range r.state().participants {
		if p.Email != nil && *p.Email == email {
			return copyParticipant(p), nil
		}
	}
	return nil, nil
}

func (r *memoryParticipantRepository) ListByTable(ctx context.Context, tableID int64, lock LockMode) ([]*domain.Participant, error) {
	defer r.lock()()

	participants := make([]*domain.Participant, 0)
	for _, p := range r.state().participants {
		if p.IsBoundTo(tableID) {
			participants = append(participants, copyParticipant(p))
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })
	return participants, nil
}

func (r *memoryParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	defer r.lock()()

	st := r.state()
	for _, existing := range st.participants {
		if existing.SessionID == p.SessionID {
			return ErrDuplicate
		}
		if p.Email != nil && existing.Email != nil && *existing.Email == *p.Email {
			return ErrDuplicate
		}
	}

	now := r.store.now()
	p.ID = st.newID()
	p.CreatedAt = now
	p.UpdatedAt = now
	st.participants[p.ID] = copyParticipant(p)
	return nil
}

func (r *memoryParticipantRepository) Update(ctx context.Context, p *domain.Participant) error {
	defer r.lock()()

	existing, ok := r.state().participants[p.ID]
	if !ok {
		return fmt.Errorf("failed to update participant %d: not found", p.ID)
	}

	updated := copyParticipant(existing)
	updated.Name = p.Name
	updated.TableID = p.TableID
	updated.Vote = p.Vote
	updated.UpdatedAt = r.store.now()
	r.state().participants[p.ID] = copyParticipant(updated)
	p.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *memoryParticipantRepository) ClearVotesForTable(ctx context.Context, tableID int64) (int64, error) {
	defer r.lock()()

	var cleared int64
	now := r.store.now()
	for _, p := range r.state().participants {
		if p.IsBoundTo(tableID) && p.HasCastVote() {
			p.ClearVote()
			p.UpdatedAt = now
			cleared++
		}
	}
	return cleared, nil
}

type memoryTableRepository struct{ *memoryRepo }

func (r *memoryTableRepository) GetByID(ctx context.Context, id int64, lock LockMode) (*domain.Table, error) {
	defer r.lock()()

	t, ok := r.state().tables[id]
	if !ok {
		return nil, nil
	}
	return copyTable(t), nil
}

func (r *memoryTableRepository) ListOpen(ctx context.Context) ([]*domain.Table, error) {
	defer r.lock()()

	tables := make([]*domain.Table, 0)
	for _, t := range r.state().tables {
		if t.IsOpen() {
			tables = append(tables, copyTable(t))
		}
	}
	sortTables(tables, func(t *domain.Table) time.Time { return t.CreatedAt })
	return tables, nil
}

func (r *memoryTableRepository) ListClosedForParticipant(ctx context.Context, participantID int64) ([]*domain.Table, error) {
	defer r.lock()()

	st := r.state()
	tables := make([]*domain.Table, 0)
	for _, rec := range st.participations {
		if rec.ParticipantID != participantID {
			continue
		}
		if t, ok := st.tables[rec.TableID]; ok && t.Closed {
			tables = append(tables, copyTable(t))
		}
	}
	sortTables(tables, func(t *domain.Table) time.Time {
		if t.ClosedAt == nil {
			return time.Time{}
		}
		return *t.ClosedAt
	})
	return tables, nil
}

func sortTables(tables []*domain.Table, key func(*domain.Table) time.Time) {
	sort.Slice(tables, func(i, j int) bool {
		ki, kj := key(tables[i]), key(tables[j])
		if ki.Equal(kj) {
			return tables[i].ID < tables[j].ID
		}
		return ki.Before(kj)
	})
}

func (r *memoryTableRepository) Create(ctx context.Context, t *domain.Table) error {
	defer r.lock()()

	st := r.state()
	t.ID = st.newID()
	t.CreatedAt = r.store.now()
	t.Closed = false
	t.ClosedAt = nil
	st.tables[t.ID] = copyTable(t)
	return nil
}

func (r *memoryTableRepository) MarkClosed(ctx context.Context, id int64, closedAt time.Time) (bool, error) {
	defer r.lock()()

	t, ok := r.state().tables[id]
	if !ok || t.Closed {
		return false, nil
	}
	at := closedAt
	t.Closed = true
	t.ClosedAt = &at
	return true, nil
}

// LockCreation is a no-op: transactions already run one at a time
func (r *memoryTableRepository) LockCreation(ctx context.Context) error {
	return nil
}

type memoryParticipationRepository struct{ *memoryRepo }

func (r *memoryParticipationRepository) Create(ctx context.Context, record *domain.ParticipationRecord) error {
	defer r.lock()()

	st := r.state()
	for _, existing := range st.participations {
		if existing.ParticipantID == record.ParticipantID && existing.TableID == record.TableID {
			return ErrDuplicate
		}
	}

	record.ID = st.newID()
	record.CreatedAt = r.store.now()
	rec := *record
	st.participations[rec.ID] = &rec
	return nil
}

func (r *memoryParticipationRepository) ListByParticipant(ctx context.Context, participantID int64) ([]*domain.ParticipationRecord, error) {
	return r.list(func(rec *domain.ParticipationRecord) bool { return rec.ParticipantID == participantID })
}

func (r *memoryParticipationRepository) ListByTable(ctx context.Context, tableID int64) ([]*domain.ParticipationRecord, error) {
	return r.list(func(rec *domain.ParticipationRecord) bool { return rec.TableID == tableID })
}

func (r *memoryParticipationRepository) list(match func(*domain.ParticipationRecord) bool) ([]*domain.ParticipationRecord, error) {
	defer r.lock()()

	records := make([]*domain.ParticipationRecord, 0)
	for _, rec := range r.state().participations {
		if match(rec) {
			c := *rec
			records = append(records, &c)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

type memoryUserStoryRepository struct{ *memoryRepo }

func (r *memoryUserStoryRepository) Create(ctx context.Context, story *domain.UserStory) error {
	defer r.lock()()

	st := r.state()
	story.ID = st.newID()
	st.stories[story.ID] = copyStory(story)
	return nil
}

func (r *memoryUserStoryRepository) GetByID(ctx context.Context, id int64) (*domain.UserStory, error) {
	defer r.lock()()

	s, ok := r.state().stories[id]
	if !ok {
		return nil, nil
	}
	return copyStory(s), nil
}

func (r *memoryUserStoryRepository) ListByTable(ctx context.Context, tableID int64) ([]*domain.UserStory, error) {
	defer r.lock()()

	stories := make([]*domain.UserStory, 0)
	for _, s := range r.state().stories {
		if s.TableID == tableID {
			stories = append(stories, copyStory(s))
		}
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].ID < stories[j].ID })
	return stories, nil
}

func (r *memoryUserStoryRepository) Update(ctx context.Context, story *domain.UserStory) error {
	defer r.lock()()

	if _, ok := r.state().stories[story.ID]; !ok {
		return fmt.Errorf("failed to update user story %d: not found", story.ID)
	}
	r.state().stories[story.ID] = copyStory(story)
	return nil
}

func (r *memoryUserStoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.lock()()

	if _, ok := r.state().stories[id]; !ok {
		return false, nil
	}
	delete(r.state().stories, id)
	return true, nil
}
