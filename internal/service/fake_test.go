package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"quads-bot/internal/model"
	"quads-bot/internal/repository"
)

// memUsers is an in-memory UserStore with the repository's save-always
// semantics.
type memUsers struct {
	mu        sync.Mutex
	users     map[int64]*model.User
	defaultTZ string
	listErr   error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]*model.User), defaultTZ: "Europe/London"}
}

func clone(u *model.User) *model.User {
	c := *u
	c.CheckIDCache = slices.Clone(u.CheckIDCache)
	return &c
}

func (m *memUsers) WithUser(_ context.Context, id int64, username string, fn func(*model.User) error) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		u = &model.User{TelegramID: id, Username: username, Timezone: m.defaultTZ, CreatedAt: time.Now()}
	}
	u = clone(u)
	if username != "" {
		u.Username = username
	}

	err := fn(u)
	u.UpdatedAt = time.Now()
	m.users[id] = clone(u)
	return u, err
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(u), nil
}

func (m *memUsers) List(_ context.Context) ([]*model.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, clone(u))
	}
	slices.SortFunc(users, func(a, b *model.User) int {
		if a.CheckedUnique != b.CheckedUnique {
			return int(b.CheckedUnique - a.CheckedUnique)
		}
		return int(a.TelegramID - b.TelegramID)
	})
	return users, nil
}

func (m *memUsers) Clear(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.users))
	m.users = make(map[int64]*model.User)
	return n, nil
}

type memSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (m *memSettings) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return v, nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}
