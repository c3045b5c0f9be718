package application

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Function-field fakes for the driven ports. Tests set only the fields the
// code under test exercises; an unset field means the test took a path it
// was not supposed to and panics loudly.

type fakeVault struct {
	StoreFunc        func(ctx context.Context, userID int64, email, password string) error
	LoadFunc         func(ctx context.Context, userID int64) (string, string, error)
	ForgetFunc       func(ctx context.Context, userID int64) error
	StatusFunc       func(ctx context.Context, userID int64) (*model.Credential, error)
	MarkVerifiedFunc func(ctx context.Context, userID int64) error
	MarkErrorFunc    func(ctx context.Context, userID int64, message string) error
}

var _ driven.CredentialVault = (*fakeVault)(nil)

func (f *fakeVault) Store(ctx context.Context, userID int64, email, password string) error {
	return f.StoreFunc(ctx, userID, email, password)
}

func (f *fakeVault) Load(ctx context.Context, userID int64) (string, string, error) {
	return f.LoadFunc(ctx, userID)
}

func (f *fakeVault) Forget(ctx context.Context, userID int64) error {
	return f.ForgetFunc(ctx, userID)
}

func (f *fakeVault) Status(ctx context.Context, userID int64) (*model.Credential, error) {
	return f.StatusFunc(ctx, userID)
}

func (f *fakeVault) MarkVerified(ctx context.Context, userID int64) error {
	if f.MarkVerifiedFunc == nil {
		return nil
	}
	return f.MarkVerifiedFunc(ctx, userID)
}

func (f *fakeVault) MarkError(ctx context.Context, userID int64, message string) error {
	if f.MarkErrorFunc == nil {
		return nil
	}
	return f.MarkErrorFunc(ctx, userID, message)
}

type fakePlatform struct {
	AuthenticateFunc func(ctx context.Context, email, password string) (model.Session, error)
	ListWorkoutsFunc func(ctx context.Context, session model.Session, limit int) ([]model.RemoteWorkout, error)
	FetchWorkoutFunc func(ctx context.Context, session model.Session, remoteID string) (json.RawMessage, error)
	PushWorkoutFunc  func(ctx context.Context, session model.Session, payload json.RawMessage) (string, error)
}

var _ driven.PlatformClient = (*fakePlatform)(nil)

func (f *fakePlatform) Authenticate(ctx context.Context, email, password string) (model.Session, error) {
	return f.AuthenticateFunc(ctx, email, password)
}

func (f *fakePlatform) ListWorkouts(ctx context.Context, session model.Session, limit int) ([]model.RemoteWorkout, error) {
	return f.ListWorkoutsFunc(ctx, session, limit)
}

func (f *fakePlatform) FetchWorkout(ctx context.Context, session model.Session, remoteID string) (json.RawMessage, error) {
	return f.FetchWorkoutFunc(ctx, session, remoteID)
}

func (f *fakePlatform) PushWorkout(ctx context.Context, session model.Session, payload json.RawMessage) (string, error) {
	return f.PushWorkoutFunc(ctx, session, payload)
}

type fakeUsers struct {
	CreateFunc         func(ctx context.Context, user model.User) (model.User, error)
	GetByIDFunc        func(ctx context.Context, id int64) (*model.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*model.User, error)
	ListByRoleFunc     func(ctx context.Context, role model.Role) ([]model.User, error)
	ListAthletesFunc   func(ctx context.Context, coachID int64) ([]model.User, error)
	ListAllFunc        func(ctx context.Context) ([]model.User, error)
	SetCoachFunc       func(ctx context.Context, athleteID int64, coachID *int64) error
	SetActiveFunc      func(ctx context.Context, id int64, active bool) error
	TouchLastLoginFunc func(ctx context.Context, id int64) error
}

var _ driven.UserStore = (*fakeUsers)(nil)

func (f *fakeUsers) Create(ctx context.Context, user model.User) (model.User, error) {
	return f.CreateFunc(ctx, user)
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return f.GetByEmailFunc(ctx, email)
}

func (f *fakeUsers) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return f.ListByRoleFunc(ctx, role)
}

func (f *fakeUsers) ListAthletes(ctx context.Context, coachID int64) ([]model.User, error) {
	return f.ListAthletesFunc(ctx, coachID)
}

func (f *fakeUsers) ListAll(ctx context.Context) ([]model.User, error) {
	return f.ListAllFunc(ctx)
}

func (f *fakeUsers) SetCoach(ctx context.Context, athleteID int64, coachID *int64) error {
	return f.SetCoachFunc(ctx, athleteID, coachID)
}

func (f *fakeUsers) SetActive(ctx context.Context, id int64, active bool) error {
	return f.SetActiveFunc(ctx, id, active)
}

func (f *fakeUsers) TouchLastLogin(ctx context.Context, id int64) error {
	if f.TouchLastLoginFunc == nil {
		return nil
	}
	return f.TouchLastLoginFunc(ctx, id)
}

type fakeWorkouts struct {
	ReplaceForCoachFunc func(ctx context.Context, coachID int64, workouts []model.RemoteWorkout) error
	ListByCoachFunc     func(ctx context.Context, coachID int64, sport model.Sport) ([]model.RemoteWorkout, error)
	GetByRemoteIDFunc   func(ctx context.Context, coachID int64, remoteID string) (*model.RemoteWorkout, error)
}

var _ driven.WorkoutStore = (*fakeWorkouts)(nil)

func (f *fakeWorkouts) ReplaceForCoach(ctx context.Context, coachID int64, workouts []model.RemoteWorkout) error {
	return f.ReplaceForCoachFunc(ctx, coachID, workouts)
}

func (f *fakeWorkouts) ListByCoach(ctx context.Context, coachID int64, sport model.Sport) ([]model.RemoteWorkout, error) {
	return f.ListByCoachFunc(ctx, coachID, sport)
}

func (f *fakeWorkouts) GetByRemoteID(ctx context.Context, coachID int64, remoteID string) (*model.RemoteWorkout, error) {
	return f.GetByRemoteIDFunc(ctx, coachID, remoteID)
}

// memShares is an in-memory ShareStore with real transition semantics, used
// by the lifecycle tests where the sequence of state changes is the point.
type memShares struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*model.SharedWorkout
}

var _ driven.ShareStore = (*memShares)(nil)

func newMemShares() *memShares {
	return &memShares{nextID: 1, rows: make(map[int64]*model.SharedWorkout)}
}

func (m *memShares) CreateBatch(ctx context.Context, shares []model.SharedWorkout) ([]model.SharedWorkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := make([]model.SharedWorkout, 0, len(shares))
	for _, s := range shares {
		s.ID = m.nextID
		m.nextID++
		s.Status = model.StatusPending
		row := s
		m.rows[s.ID] = &row
		created = append(created, s)
	}
	return created, nil
}

func (m *memShares) GetByID(ctx context.Context, id int64) (*model.SharedWorkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memShares) ListByAthlete(ctx context.Context, athleteID int64, status model.ShareStatus) ([]model.SharedWorkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SharedWorkout
	for _, row := range m.rows {
		if row.AthleteID != athleteID {
			continue
		}
		if status != "" && row.PublicStatus() != status {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (m *memShares) HasActiveShare(ctx context.Context, coachID int64, remoteID string, athleteID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.CoachID == coachID && row.RemoteID == remoteID && row.AthleteID == athleteID &&
			row.Status != model.StatusFailed {
			return true, nil
		}
	}
	return false, nil
}

func (m *memShares) ClaimForImport(ctx context.Context, id, athleteID int64) (*model.SharedWorkout, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.AthleteID != athleteID {
		return nil, false, nil
	}
	if row.Status != model.StatusPending && row.Status != model.StatusFailed {
		return nil, false, nil
	}
	row.Status = model.StatusImporting
	row.Attempts++
	cp := *row
	return &cp, true, nil
}

func (m *memShares) MarkImported(ctx context.Context, id int64, importedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.Status = model.StatusImported
	row.ImportedID = importedID
	return nil
}

func (m *memShares) MarkFailed(ctx context.Context, id int64, category model.ErrorCategory, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.Status = model.StatusFailed
	row.LastCategory = category
	row.LastError = message
	return nil
}

func (m *memShares) ResetToPending(ctx context.Context, id, athleteID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.AthleteID != athleteID || row.Status != model.StatusFailed {
		return false, nil
	}
	row.Status = model.StatusPending
	return true, nil
}

func (m *memShares) Delete(ctx context.Context, id, athleteID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.AthleteID != athleteID {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

// memActivity collects audit entries for assertions.
type memActivity struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
}

var _ driven.ActivityStore = (*memActivity)(nil)

func (m *memActivity) Append(ctx context.Context, userID int64, action, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, model.ActivityEntry{UserID: userID, Action: action, Detail: detail})
	return nil
}

func (m *memActivity) ListByUser(ctx context.Context, userID int64, limit int) ([]model.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memActivity) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeMessages struct {
	CreateFunc      func(ctx context.Context, msg model.Message) (model.Message, error)
	ListForUserFunc func(ctx context.Context, userID int64) ([]model.Message, error)
	MarkReadFunc    func(ctx context.Context, id, recipientID int64) (bool, error)
}

var _ driven.MessageStore = (*fakeMessages)(nil)

func (f *fakeMessages) Create(ctx context.Context, msg model.Message) (model.Message, error) {
	return f.CreateFunc(ctx, msg)
}

func (f *fakeMessages) ListForUser(ctx context.Context, userID int64) ([]model.Message, error) {
	return f.ListForUserFunc(ctx, userID)
}

func (f *fakeMessages) MarkRead(ctx context.Context, id, recipientID int64) (bool, error) {
	return f.MarkReadFunc(ctx, id, recipientID)
}

// Shorthand constructors shared across service tests.

func workingVault(email, password string) *fakeVault {
	return &fakeVault{
		LoadFunc: func(ctx context.Context, userID int64) (string, string, error) {
			return email, password, nil
		},
	}
}

func athleteUser(id int64) *fakeUsers {
	return &fakeUsers{
		GetByIDFunc: func(ctx context.Context, got int64) (*model.User, error) {
			if got != id {
				return nil, nil
			}
			return &model.User{ID: id, Role: model.RoleAthlete, IsActive: true}, nil
		},
	}
}
