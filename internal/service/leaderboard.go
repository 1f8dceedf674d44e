package service

import (
	"cmp"
	"context"
	"fmt"
	"html"
	"slices"
	"strings"

	"quads-bot/internal/model"
)

// LeaderboardService ranks users by unique checks.
type LeaderboardService struct {
	users UserStore
}

// NewLeaderboardService creates a new LeaderboardService instance.
func NewLeaderboardService(users UserStore) *LeaderboardService {
	return &LeaderboardService{users: users}
}

// Render returns the leaderboard as Telegram HTML.
func (s *LeaderboardService) Render(ctx context.Context) (string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return FormatLeaderboard(users), nil
}

// FormatLeaderboard renders users by checked_unique, highest first. Ties keep
// their input order. The leader gets a crown.
func FormatLeaderboard(users []*model.User) string {
	ranked := slices.Clone(users)
	slices.SortStableFunc(ranked, func(a, b *model.User) int {
		return cmp.Compare(b.CheckedUnique, a.CheckedUnique)
	})

	var sb strings.Builder
	sb.WriteString("<b>Leaderboard</b>\n")

	if len(ranked) == 0 {
		sb.WriteString("<i>Empty...</i>")
		return sb.String()
	}

	top := ranked[0]
	fmt.Fprintf(&sb, "1. %d - 👑 <b>%s</b> 👑", top.CheckedUnique, html.EscapeString(top.Username))

	for i, u := range ranked[1:] {
		fmt.Fprintf(&sb, "\n%d. %d - %s", i+2, u.CheckedUnique, html.EscapeString(u.Username))
	}

	return sb.String()
}
