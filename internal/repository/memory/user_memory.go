package memory

import (
	"context"
	"sync"
	"time"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// UserStore is the in-memory implementation of repository.UserRepository.
type UserStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	byEmail map[string]string
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new user account. ErrDuplicateEmail if the email is taken.
func (s *UserStore) Create(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.Email]; taken {
		return nil, repository.ErrDuplicateEmail
	}
	cp := *u
	cp.Points = 0
	cp.UpdatedAt = cp.CreatedAt
	s.users[cp.ID] = &cp
	s.byEmail[cp.Email] = cp.ID

	out := cp
	return &out, nil
}

// FindByID returns a user by id.
func (s *UserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

// FindByEmail returns a user by email.
func (s *UserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// UpdateProfile persists name/bio/picture changes and bumps updated_at.
func (s *UserStore) UpdateProfile(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cur.Name = u.Name
	cur.Bio = u.Bio
	cur.ProfilePicture = u.ProfilePicture
	cur.UpdatedAt = time.Now().UTC()

	out := *cur
	return &out, nil
}
