package user

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrUsernameExists     = errors.New("username already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	FirstByRole(ctx context.Context, role string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int64
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	var maxID int64
	for _, user := range seed {
		repo.users = append(repo.users, user)
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) FirstByRole(_ context.Context, role string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var first *User
	for i := range r.users {
		if r.users[i].Role == role && (first == nil || r.users[i].ID < first.ID) {
			first = &r.users[i]
		}
	}
	if first == nil {
		return User{}, ErrNotFound
	}
	return *first, nil
}

func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return User{}, ErrUsernameExists
		}
	}

	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	if user.CreatedAt == "" {
		user.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	r.users = append(r.users, user)
	return user, nil
}

func (r *InMemoryRepository) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, user := range r.users {
		if user.ID == id {
			r.users[i].PasswordHash = hash
			return nil
		}
	}

	return ErrNotFound
}
