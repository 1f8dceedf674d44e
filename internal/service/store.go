// Package service provides business logic implementations.
package service

import (
	"context"

	"quads-bot/internal/model"
)

// UserStore is the user record persistence the services need.
// *repository.UserRepository implements it.
type UserStore interface {
	WithUser(ctx context.Context, telegramID int64, username string, fn func(*model.User) error) (*model.User, error)
	GetByID(ctx context.Context, telegramID int64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Clear(ctx context.Context) (int64, error)
}

// SettingsStore is bot-wide key/value storage.
// *repository.SettingsRepository implements it.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
