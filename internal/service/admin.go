package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"

	"quads-bot/internal/model"
	"quads-bot/internal/repository"
)

// AdminService handles admin identity and the admin-only data operations.
type AdminService struct {
	users    UserStore
	settings SettingsStore
	adminIDs []int64
}

// NewAdminService creates a new AdminService instance. adminIDs are the
// statically configured admins.
func NewAdminService(users UserStore, settings SettingsStore, adminIDs []int64) *AdminService {
	return &AdminService{
		users:    users,
		settings: settings,
		adminIDs: slices.Clone(adminIDs),
	}
}

// storedAdmin returns the admin set with /setadmin, or 0 when there is none.
func (s *AdminService) storedAdmin(ctx context.Context) (int64, error) {
	value, err := s.settings.Get(ctx, model.SettingAdminID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get admin: %w", err)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse stored admin %q: %w", value, err)
	}
	return id, nil
}

// IsAdmin reports whether userID may run admin commands. Admins are the
// configured IDs plus the stored admin. With no admin at all, everyone is
// allowed so the first user can run /setadmin.
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if slices.Contains(s.adminIDs, userID) {
		return true, nil
	}

	stored, err := s.storedAdmin(ctx)
	if err != nil {
		return false, err
	}

	if stored == 0 && len(s.adminIDs) == 0 {
		return true, nil
	}
	return stored == userID, nil
}

// SetAdmin stores userID as the admin.
func (s *AdminService) SetAdmin(ctx context.Context, userID int64) error {
	if err := s.settings.Set(ctx, model.SettingAdminID, strconv.FormatInt(userID, 10)); err != nil {
		return fmt.Errorf("failed to set admin: %w", err)
	}
	log.Info().Int64("user_id", userID).Msg("Admin set")
	return nil
}

// Dump is the /stats payload.
type Dump struct {
	AdminID int64                  `json:"admin_id,omitempty"`
	Users   map[string]*model.User `json:"users"`
}

// Stats returns all stored state as JSON.
func (s *AdminService) Stats(ctx context.Context) (string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list users: %w", err)
	}

	admin, err := s.storedAdmin(ctx)
	if err != nil {
		return "", err
	}

	dump := Dump{AdminID: admin, Users: make(map[string]*model.User, len(users))}
	for _, u := range users {
		dump.Users[strconv.FormatInt(u.TelegramID, 10)] = u
	}

	b, err := json.Marshal(dump)
	if err != nil {
		return "", fmt.Errorf("failed to encode stats: %w", err)
	}
	return string(b), nil
}

// Clear wipes every user record. The admin setting is kept.
func (s *AdminService) Clear(ctx context.Context) (int64, error) {
	n, err := s.users.Clear(ctx)
	if err != nil {
		return 0, err
	}
	log.Warn().Int64("users", n).Msg("User records cleared")
	return n, nil
}
