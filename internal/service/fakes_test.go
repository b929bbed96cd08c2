package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/storage"
)

// memDB is the shared state behind the in-memory repositories.
type memDB struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	departments []domain.Department
	complaints  []*domain.Complaint
	admins      map[string]*domain.Admin
	nextID      int64
	clock       time.Time
	createErr   error
	upsertErr   error
	lookupErr   error
}

func newMemDB(departments ...string) *memDB {
	db := &memDB{
		users:  map[string]*domain.User{},
		admins: map[string]*domain.Admin{},
		clock:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, name := range departments {
		db.nextID++
		db.departments = append(db.departments, domain.Department{ID: db.nextID, Name: name})
	}
	return db
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) departmentName(id int64) string {
	for _, d := range db.departments {
		if d.ID == id {
			return d.Name
		}
	}
	return "Unknown"
}

func (db *memDB) view(c *domain.Complaint) *domain.ComplaintView {
	v := &domain.ComplaintView{Complaint: *c, DepartmentName: db.departmentName(c.DepartmentID)}
	for _, u := range db.users {
		if u.ID == c.UserID {
			v.UserName = u.Name
			v.UserEmail = u.Email
		}
	}
	return v
}

type memUsers struct{ db *memDB }

func (r memUsers) UpsertByEmail(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.upsertErr != nil {
		return r.db.upsertErr
	}
	if existing, ok := r.db.users[user.Email]; ok {
		*user = *existing
		return nil
	}
	r.db.nextID++
	user.ID = r.db.nextID
	user.CreatedAt = r.db.tick()
	stored := *user
	r.db.users[user.Email] = &stored
	return nil
}

type memDepartments struct{ db *memDB }

func (r memDepartments) GetByName(_ context.Context, name string) (*domain.Department, error) {
	if r.db.lookupErr != nil {
		return nil, r.db.lookupErr
	}
	for _, d := range r.db.departments {
		if d.Name == name {
			out := d
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memDepartments) List(context.Context) ([]domain.Department, error) {
	out := append([]domain.Department{}, r.db.departments...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memDepartments) EnsureSeeded(_ context.Context, names []string) (int, error) {
	added := 0
	for _, name := range names {
		if _, err := r.GetByName(context.Background(), name); err == nil {
			continue
		}
		r.db.nextID++
		r.db.departments = append(r.db.departments, domain.Department{ID: r.db.nextID, Name: name})
		added++
	}
	return added, nil
}

type memComplaints struct{ db *memDB }

func (r memComplaints) Create(_ context.Context, c *domain.Complaint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.createErr != nil {
		return r.db.createErr
	}
	for _, existing := range r.db.complaints {
		if existing.TicketNumber == c.TicketNumber {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	if c.Status == "" {
		c.Status = domain.ComplaintStatusPending
	}
	r.db.nextID++
	c.ID = r.db.nextID
	c.CreatedAt = r.db.tick()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	r.db.complaints = append(r.db.complaints, &stored)
	return nil
}

func (r memComplaints) GetByTicket(_ context.Context, ticket string) (*domain.ComplaintView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.complaints {
		if c.TicketNumber == ticket {
			return r.db.view(c), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memComplaints) GetViewByID(_ context.Context, id int64) (*domain.ComplaintView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.complaints {
		if c.ID == id {
			return r.db.view(c), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memComplaints) UpdateStatus(_ context.Context, id int64, status domain.ComplaintStatus) (*domain.Complaint, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.complaints {
		if c.ID == id {
			c.Status = status
			c.UpdatedAt = r.db.tick()
			out := *c
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memComplaints) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.ComplaintView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.ComplaintView
	for i := len(r.db.complaints) - 1; i >= 0; i-- {
		v := r.db.view(r.db.complaints[i])
		if filter.Department != nil && v.DepartmentName != *filter.Department {
			continue
		}
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (r memComplaints) Report(context.Context) (*domain.Report, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	report := &domain.Report{}
	byStatus := map[domain.ComplaintStatus]int64{}
	for _, c := range r.db.complaints {
		report.Statistics.TotalComplaints++
		byStatus[c.Status]++
	}
	report.Statistics.PendingComplaints = byStatus[domain.ComplaintStatusPending]
	report.Statistics.InProgressComplaints = byStatus[domain.ComplaintStatusInProgress]
	report.Statistics.ResolvedComplaints = byStatus[domain.ComplaintStatusResolved]
	for _, s := range domain.ComplaintStatuses {
		if byStatus[s] > 0 {
			report.ByStatus = append(report.ByStatus, domain.StatusCount{Status: s, Count: byStatus[s]})
		}
	}
	return report, nil
}

type memAdmins struct{ db *memDB }

func (r memAdmins) GetByID(_ context.Context, id int64) (*domain.Admin, error) {
	for _, a := range r.db.admins {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memAdmins) GetByUsername(_ context.Context, username string) (*domain.Admin, error) {
	if a, ok := r.db.admins[username]; ok {
		out := *a
		return &out, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memAdmins) CreateIfMissing(_ context.Context, admin *domain.Admin) (bool, error) {
	if _, ok := r.db.admins[admin.Username]; ok {
		return false, nil
	}
	r.db.nextID++
	admin.ID = r.db.nextID
	stored := *admin
	r.db.admins[admin.Username] = &stored
	return true, nil
}

// memBlobs is an in-memory storage.BlobStore.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *memBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for k := range b.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type mockClassifier struct{ mock.Mock }

func (m *mockClassifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(domain.Classification), args.Error(1)
}

type stubScorer struct {
	verdict domain.RelevanceVerdict
	calls   int
}

func (s *stubScorer) Score(context.Context, []byte, string) domain.RelevanceVerdict {
	s.calls++
	return s.verdict
}

type fixedTickets struct {
	numbers []string
	i       int
}

func (f *fixedTickets) Next() string {
	n := f.numbers[f.i%len(f.numbers)]
	f.i++
	return n
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

// memSessions is an in-memory auth.SessionStore.
type memSessions struct {
	sessions map[string]*domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*domain.Session{}}
}

func (s *memSessions) Save(_ context.Context, session *domain.Session) error {
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	if session, ok := s.sessions[id]; ok {
		out := *session
		return &out, nil
	}
	return nil, auth.ErrSessionNotFound
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

// recordedEvents subscribes to every complaint event on a fresh dispatcher.
func recordedEvents() (events.Dispatcher, *[]events.Event) {
	d := events.NewInMemoryDispatcher(nil)
	var got []events.Event
	record := func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	}
	d.Subscribe(events.EventComplaintSubmitted, record)
	d.Subscribe(events.EventComplaintStatusChanged, record)
	return d, &got
}
