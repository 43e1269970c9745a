package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

func strPtr(s string) *string { return &s }

type fakeTx struct {
	calls int
	err   error
}

func (f *fakeTx) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type fakeUsers struct {
	byID    map[string]*domain.User
	updated []*domain.User
	nextID  int
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.nextID++
	user.ID = fmt.Sprintf("u-new-%d", f.nextID)
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user *domain.User) error {
	f.updated = append(f.updated, user)
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) List(_ context.Context, _, _ int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

type fakeTeams struct {
	byID map[string]*domain.MaintenanceTeam
}

func newFakeTeams(teams ...*domain.MaintenanceTeam) *fakeTeams {
	f := &fakeTeams{byID: map[string]*domain.MaintenanceTeam{}}
	for _, t := range teams {
		f.byID[t.ID] = t
	}
	return f
}

func (f *fakeTeams) Create(_ context.Context, team *domain.MaintenanceTeam) error {
	team.ID = "team-new"
	f.byID[team.ID] = team
	return nil
}

func (f *fakeTeams) GetByID(_ context.Context, id string) (*domain.MaintenanceTeam, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTeams) List(_ context.Context) ([]domain.MaintenanceTeam, error) {
	out := make([]domain.MaintenanceTeam, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTeams) AddMember(_ context.Context, teamID, userID string) error {
	t := f.byID[teamID]
	if !t.HasMember(userID) {
		t.MemberIDs = append(t.MemberIDs, userID)
	}
	return nil
}

func (f *fakeTeams) RemoveMember(_ context.Context, teamID, userID string) error {
	t := f.byID[teamID]
	for i, id := range t.MemberIDs {
		if id == userID {
			t.MemberIDs = append(t.MemberIDs[:i], t.MemberIDs[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeEquipment struct {
	byID      map[string]*domain.Equipment
	openCount map[string]int
	created   []*domain.Equipment
}

func newFakeEquipment(items ...*domain.Equipment) *fakeEquipment {
	f := &fakeEquipment{byID: map[string]*domain.Equipment{}, openCount: map[string]int{}}
	for _, e := range items {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEquipment) WithTx(pgx.Tx) repository.EquipmentRepository { return f }

func (f *fakeEquipment) Create(_ context.Context, e *domain.Equipment) error {
	e.ID = fmt.Sprintf("eq-new-%d", len(f.created)+1)
	f.created = append(f.created, e)
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEquipment) GetByID(_ context.Context, id string) (*domain.Equipment, error) {
	if e, ok := f.byID[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEquipment) List(_ context.Context, filter repository.EquipmentFilter) ([]domain.Equipment, error) {
	var out []domain.Equipment
	for _, e := range f.byID {
		if e.IsScrapped && !filter.IncludeScrapped {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEquipment) MarkScrapped(_ context.Context, id string) (bool, error) {
	e, ok := f.byID[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	return e.MarkScrapped(), nil
}

func (f *fakeEquipment) CountOpenRequests(_ context.Context, id string) (int, error) {
	return f.openCount[id], nil
}

type fakeRequests struct {
	mu         sync.Mutex
	byID       map[string]*domain.MaintenanceRequest
	lastFilter repository.RequestFilter
	seq        int
	// staleOnce forces the next conditional update to lose the race.
	staleOnce bool
}

func newFakeRequests(reqs ...*domain.MaintenanceRequest) *fakeRequests {
	f := &fakeRequests{byID: map[string]*domain.MaintenanceRequest{}}
	for _, r := range reqs {
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeRequests) WithTx(pgx.Tx) repository.RequestRepository { return f }

func (f *fakeRequests) Create(_ context.Context, req *domain.MaintenanceRequest, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	req.ID = fmt.Sprintf("r-%d", f.seq)
	req.ExternalKey = fmt.Sprintf("%s-%04d", prefix, f.seq)
	stored := *req
	f.byID[req.ID] = &stored
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id string) (*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *r
	copied.Equipment, copied.AssignedTeam, copied.AssignedTechnician, copied.CreatedBy = nil, nil, nil, nil
	return &copied, nil
}

func (f *fakeRequests) UpdateIfStatus(_ context.Context, req *domain.MaintenanceRequest, expected domain.RequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[req.ID]
	if !ok || stored.Status != expected || f.staleOnce {
		f.staleOnce = false
		return repository.ErrStaleStatus
	}
	stored.Status = req.Status
	stored.AssignedTechnicianID = req.AssignedTechnicianID
	stored.DurationHours = req.DurationHours
	return nil
}

func (f *fakeRequests) List(_ context.Context, filter repository.RequestFilter) ([]domain.MaintenanceRequest, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	out := make([]domain.MaintenanceRequest, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, *r)
	}
	return out, uint64(len(out)), nil
}

type fakeHistory struct {
	entries []*domain.RequestHistory
}

func (f *fakeHistory) WithTx(pgx.Tx) repository.RequestHistoryRepository { return f }

func (f *fakeHistory) Create(_ context.Context, h *domain.RequestHistory) error {
	h.ID = fmt.Sprintf("h-%d", len(f.entries)+1)
	f.entries = append(f.entries, h)
	return nil
}

func (f *fakeHistory) ListByRequest(_ context.Context, requestID string) ([]domain.RequestHistory, error) {
	var out []domain.RequestHistory
	for _, h := range f.entries {
		if h.RequestID == requestID {
			out = append(out, *h)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.published = append(d.published, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, len(d.published))
	for i, e := range d.published {
		out[i] = e.Type
	}
	return out
}

type fakeCache struct {
	invalidated []string
}

func (c *fakeCache) Get(context.Context, string) (*domain.User, bool) { return nil, false }
func (c *fakeCache) Set(context.Context, *domain.User)               {}
func (c *fakeCache) Invalidate(_ context.Context, ids ...string) error {
	c.invalidated = append(c.invalidated, ids...)
	return nil
}
