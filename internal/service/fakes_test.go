package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
)

// memStore backs both fake repositories so the join and the one-active
// constraint behave like the database.
type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	users    map[string]domain.User
	requests map[string]domain.ServiceRequest
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		users:    map[string]domain.User{},
		requests: map[string]domain.ServiceRequest{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) addUser(name string, admin bool) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := uuid.NewString()[:8] + "@gatech.edu"
	u := domain.User{ID: uuid.NewString(), FullName: name, Email: &email, IsAdmin: admin, CreatedAt: m.tick()}
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return u
}

func (m *memStore) hasOtherActive(userID, exceptID string) bool {
	for _, r := range m.requests {
		if r.UserID == userID && r.ID != exceptID && r.Status.IsActive() {
			return true
		}
	}
	return false
}

type fakeUsers struct{ *memStore }

func (f fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, u := range f.users {
		if (user.Email != nil && u.Email != nil && *u.Email == *user.Email) ||
			(user.Phone != nil && u.Phone != nil && *u.Phone == *user.Phone) {
			return repository.ErrDuplicateIdentity
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = f.tick()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f fakeUsers) find(match func(domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Email != nil && *u.Email == email })
}

func (f fakeUsers) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (f fakeUsers) List(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeUsers) SetBanned(_ context.Context, id string, banned bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u.IsBanned = banned
	u.UpdatedAt = f.tick()
	f.users[id] = u
	return &u, nil
}

type fakeRequests struct {
	*memStore
	// beforeCreate runs without the lock held, simulating a concurrent writer.
	beforeCreate func()
}

func (f *fakeRequests) Create(_ context.Context, req *domain.ServiceRequest) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[req.UserID]; !ok {
		return repository.ErrOwnerNotFound
	}
	if req.Status.IsActive() && f.hasOtherActive(req.UserID, "") {
		return repository.ErrActiveRequestExists
	}
	req.ID = uuid.NewString()
	req.CreatedAt = f.tick()
	req.UpdatedAt = req.CreatedAt
	f.requests[req.ID] = *req
	return nil
}

func (f *fakeRequests) Update(_ context.Context, req *domain.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[req.ID]; !ok {
		return pgx.ErrNoRows
	}
	if req.Status.IsActive() && f.hasOtherActive(req.UserID, req.ID) {
		return repository.ErrActiveRequestExists
	}
	req.UpdatedAt = f.tick()
	f.requests[req.ID] = *req
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &r, nil
}

func (f *fakeRequests) sorted(match func(domain.ServiceRequest) bool, newestFirst bool) []domain.ServiceRequest {
	out := make([]domain.ServiceRequest, 0)
	for _, r := range f.requests {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *fakeRequests) FindActiveByUser(_ context.Context, userID string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	active := f.sorted(func(r domain.ServiceRequest) bool { return r.UserID == userID && r.Status.IsActive() }, false)
	if len(active) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &active[0], nil
}

func (f *fakeRequests) ListByUser(_ context.Context, userID string) ([]domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(r domain.ServiceRequest) bool { return r.UserID == userID }, true), nil
}

func (f *fakeRequests) ListWithUsers(_ context.Context) ([]domain.ServiceRequestWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(domain.ServiceRequest) bool { return true }, true)
	out := make([]domain.ServiceRequestWithUser, 0, len(all))
	for _, r := range all {
		item := domain.ServiceRequestWithUser{ServiceRequest: r}
		if u, ok := f.users[r.UserID]; ok {
			item.User = &domain.UserRef{ID: u.ID, FullName: u.FullName, Email: u.Email, Phone: u.Phone}
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeRequests) Delete(_ context.Context, id string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	delete(f.requests, id)
	return &r, nil
}

func (f *fakeRequests) DeleteActiveOwned(_ context.Context, id, userID string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.UserID != userID || !r.Status.IsActive() {
		return nil, pgx.ErrNoRows
	}
	delete(f.requests, id)
	return &r, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

type fakeVerifier struct {
	mu      sync.Mutex
	codes   map[string]string
	sent    []string
	checked int
	sendErr error
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{codes: map[string]string{}}
}

func (v *fakeVerifier) SendCode(_ context.Context, phone string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sendErr != nil {
		return v.sendErr
	}
	v.sent = append(v.sent, phone)
	v.codes[phone] = "123456"
	return nil
}

func (v *fakeVerifier) CheckCode(_ context.Context, phone, code string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checked++
	if v.codes[phone] != code {
		return false, nil
	}
	delete(v.codes, phone)
	return true, nil
}
