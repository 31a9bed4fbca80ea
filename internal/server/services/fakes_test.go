package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/files"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/projects"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/refreshrecords"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// -------- in-memory repositories --------

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Login == u.Login {
			return nil, common.ErrDuplicateLogin
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memUsers) GetByLogin(_ context.Context, login string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Login == login {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) List(_ context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.User, 0, len(m.byID))
	for _, u := range m.byID {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

func (m *memUsers) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Role = role
	c := *u
	return &c, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id string, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

type memRecords struct {
	mu    sync.Mutex
	byJTI map[string]models.RefreshRecord
}

func (m *memRecords) Add(_ context.Context, rec *models.RefreshRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byJTI[rec.TokenID] = *rec
	return nil
}

func (m *memRecords) takeLocked(userID, tokenID string, now time.Time) bool {
	rec, ok := m.byJTI[tokenID]
	if !ok || rec.UserID != userID || !rec.ActiveAt(now) {
		return false
	}
	delete(m.byJTI, tokenID)
	return true
}

func (m *memRecords) Remove(_ context.Context, userID, tokenID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.takeLocked(userID, tokenID, now) {
		return common.ErrSessionNotActive
	}
	return nil
}

func (m *memRecords) Rotate(_ context.Context, userID, oldTokenID string, next *models.RefreshRecord, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.takeLocked(userID, oldTokenID, now) {
		return common.ErrSessionNotActive
	}
	next.UserID = userID
	m.byJTI[next.TokenID] = *next
	return nil
}

func (m *memRecords) Clear(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.byJTI {
		if rec.UserID == userID {
			delete(m.byJTI, id)
			n++
		}
	}
	return n, nil
}

func (m *memRecords) PruneExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.byJTI {
		if rec.UserID == userID && !rec.ActiveAt(now) {
			delete(m.byJTI, id)
			n++
		}
	}
	return n, nil
}

func (m *memRecords) ListActive(_ context.Context, userID string, now time.Time) ([]*models.RefreshRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.RefreshRecord
	for _, rec := range m.byJTI {
		if rec.UserID == userID && rec.ActiveAt(now) {
			c := rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memRecords) count(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.byJTI {
		if rec.UserID == userID {
			n++
		}
	}
	return n
}

type memProjects struct {
	mu    sync.Mutex
	byID  map[string]*models.Project
	order []string
	users *memUsers
}

func (m *memProjects) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	c.ID = uuid.NewString()
	c.Members = append([]string{}, p.Members...)
	m.byID[c.ID] = &c
	m.order = append(m.order, c.ID)
	out := c
	return &out, nil
}

func (m *memProjects) GetByID(_ context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	c.Members = append([]string{}, p.Members...)
	return &c, nil
}

func (m *memProjects) List(ctx context.Context) ([]*models.Project, error) {
	var out []*models.Project
	for _, id := range m.order {
		if p, err := m.GetByID(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProjects) Update(ctx context.Context, id string, patch projects.Patch) (*models.Project, error) {
	m.mu.Lock()
	p, ok := m.byID[id]
	if ok {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
	}
	m.mu.Unlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memProjects) AddMember(ctx context.Context, projectID, userID string) error {
	if _, err := m.users.GetByID(ctx, userID); err != nil {
		return common.ErrorNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[projectID]
	if !ok {
		return common.ErrorNotFound
	}
	if !p.HasMember(userID) {
		p.Members = append(p.Members, userID)
	}
	return nil
}

func (m *memProjects) RemoveMember(_ context.Context, projectID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[projectID]
	if !ok || !p.HasMember(userID) {
		return common.ErrorNotFound
	}
	kept := p.Members[:0]
	for _, id := range p.Members {
		if id != userID {
			kept = append(kept, id)
		}
	}
	p.Members = kept
	return nil
}

func (m *memProjects) SetMembers(_ context.Context, projectID string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[projectID]
	if !ok {
		return common.ErrorNotFound
	}
	p.Members = append([]string{}, userIDs...)
	return nil
}

type memTasks struct {
	mu       sync.Mutex
	byID     map[string]*models.Task
	projects *memProjects
}

func (m *memTasks) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	if _, err := m.projects.GetByID(ctx, t.ProjectID); err != nil {
		return nil, common.ErrorNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	c.ID = uuid.NewString()
	m.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memTasks) Get(_ context.Context, projectID, taskID string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (m *memTasks) ListByProject(_ context.Context, projectID string) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Task{}
	for _, t := range m.byID {
		if t.ProjectID == projectID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memTasks) Update(_ context.Context, projectID, taskID string, patch tasks.Patch) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, common.ErrorNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Assignee != nil {
		t.Assignee = *patch.Assignee
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	c := *t
	return &c, nil
}

func (m *memTasks) Delete(_ context.Context, projectID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[taskID]
	if !ok || t.ProjectID != projectID {
		return common.ErrorNotFound
	}
	delete(m.byID, taskID)
	return nil
}

type memFiles struct {
	mu        sync.Mutex
	byID      map[string]*models.File
	createErr error
}

func (m *memFiles) Create(_ context.Context, f *models.File) (*models.File, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *f
	c.ID = uuid.NewString()
	c.UploadedAt = time.Now()
	m.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memFiles) Get(_ context.Context, taskID, fileID string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.byID[fileID]
	if !ok || f.TaskID != taskID {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (m *memFiles) list(match func(*models.File) bool) []*models.File {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.File{}
	for _, f := range m.byID {
		if match(f) {
			c := *f
			out = append(out, &c)
		}
	}
	return out
}

func (m *memFiles) ListByTask(_ context.Context, taskID string) ([]*models.File, error) {
	return m.list(func(f *models.File) bool { return f.TaskID == taskID }), nil
}

func (m *memFiles) ListByProject(_ context.Context, projectID string) ([]*models.File, error) {
	return m.list(func(f *models.File) bool { return f.ProjectID == projectID }), nil
}

func (m *memFiles) Delete(_ context.Context, taskID, fileID string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.byID[fileID]
	if !ok || f.TaskID != taskID {
		return nil, common.ErrorNotFound
	}
	delete(m.byID, fileID)
	return f, nil
}

type fakeRepoManager struct {
	users    *memUsers
	records  *memRecords
	projects *memProjects
	tasks    *memTasks
	files    *memFiles
}

func newFakeRepoManager() *fakeRepoManager {
	u := &memUsers{byID: map[string]*models.User{}}
	p := &memProjects{byID: map[string]*models.Project{}, users: u}
	return &fakeRepoManager{
		users:    u,
		records:  &memRecords{byJTI: map[string]models.RefreshRecord{}},
		projects: p,
		tasks:    &memTasks{byID: map[string]*models.Task{}, projects: p},
		files:    &memFiles{byID: map[string]*models.File{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                   { return m.users }
func (m *fakeRepoManager) RefreshRecords(dbx.DBTX) refreshrecords.Repository { return m.records }
func (m *fakeRepoManager) Projects(dbx.DBTX) projects.Repository             { return m.projects }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository                   { return m.tasks }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository                   { return m.files }

// -------- object store --------

type memObjects struct {
	mu        sync.Mutex
	data      map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newMemObjects() *memObjects {
	return &memObjects{data: map[string][]byte{}}
}

func (m *memObjects) Put(_ context.Context, key, _ string, body []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte{}, body...)
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.data, key)
	return nil
}

func (m *memObjects) PresignGet(_ context.Context, key, filename string, ttl time.Duration) (string, error) {
	return "https://objects.test/" + key + "?name=" + filename + "&ttl=" + ttl.String(), nil
}

func (m *memObjects) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// -------- recorder --------

type recordedEvent struct{ op, result string }

type memRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *memRecorder) AuthEvent(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{op, result})
}

// -------- fixture --------

type fixture struct {
	db       *sql.DB
	repos    *fakeRepoManager
	objects  *memObjects
	issuer   *auth.Issuer
	store    *CredentialStore
	sessions *SessionService
	users    *UserService
	projects *ProjectService
	tasks    *TaskService
	files    *FileService
}

// newFixture wires services over in-memory repositories. The sqlite handle
// only provides transactions for dbx.WithTx.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := newFakeRepoManager()
	issuer, err := auth.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	store, err := NewCredentialStore(db, repos, auth.NewBcryptHasher(bcrypt.MinCost))
	require.NoError(t, err)

	log := logging.Nop{}
	objects := newMemObjects()
	return &fixture{
		db:       db,
		repos:    repos,
		objects:  objects,
		issuer:   issuer,
		store:    store,
		sessions: NewSessionService(store, issuer, log),
		users:    NewUserService(store, log),
		projects: NewProjectService(db, repos, objects, log),
		tasks:    NewTaskService(db, repos, objects, log),
		files:    NewFileService(db, repos, objects, 1024, log),
	}
}

// seedUser creates a user directly through the store.
func (f *fixture) seedUser(t *testing.T, login string, role models.Role) (*models.User, auth.Identity) {
	t.Helper()
	u, err := f.store.Create(context.Background(), login, "pw-"+login, role)
	require.NoError(t, err)
	return u, auth.Identity{UserID: u.ID, Role: u.Role}
}
