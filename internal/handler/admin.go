package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"quads-bot/internal/checker"
	"quads-bot/internal/service"
	"quads-bot/internal/timezone"
)

// Admin is the admin data surface.
type Admin interface {
	SetAdmin(ctx context.Context, userID int64) error
	Stats(ctx context.Context) (string, error)
	Clear(ctx context.Context) (int64, error)
}

// Previewer runs dry-run checks.
type Previewer interface {
	Preview(ctx context.Context, userID int64, at time.Time, date, tzOverride, text string) (*service.Preview, error)
	DigitStrings(ctx context.Context, userID int64, at time.Time) ([2]string, string, error)
}

// AdminHandler handles admin-only commands. Access is checked by
// AdminMiddleware.
type AdminHandler struct {
	admin   Admin
	preview Previewer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin Admin, preview Previewer) *AdminHandler {
	return &AdminHandler{
		admin:   admin,
		preview: preview,
	}
}

// HandleSetAdmin handles the /setadmin command.
func (h *AdminHandler) HandleSetAdmin(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if err := h.admin.SetAdmin(context.Background(), sender.ID); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to set admin")
		return c.Reply("Failed to set admin")
	}
	return c.Reply("Set as Admin")
}

// HandleStats handles the /stats command: the digit strings for now in the
// sender's zone and a JSON dump of everything stored.
func (h *AdminHandler) HandleStats(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil {
		return nil
	}
	ctx := context.Background()

	digits, zone, err := h.preview.DigitStrings(ctx, sender.ID, msg.Time())
	if err != nil {
		log.Error().Err(err).Msg("Failed to render digit strings")
		return c.Reply("Failed to load stats")
	}

	stats, err := h.admin.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to dump stats")
		return c.Reply("Failed to load stats")
	}

	return c.Reply(fmt.Sprintf("Date strings (%s): [%s %s]\nStats: %s", zone, digits[0], digits[1], stats))
}

// HandleClear handles the /clear command.
func (h *AdminHandler) HandleClear(c tele.Context) error {
	n, err := h.admin.Clear(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to clear users")
		return c.Reply("Failed to clear")
	}
	return c.Reply(fmt.Sprintf("Cleared %d users", n))
}

// HandleCheck handles the /check command.
// Format: /check [2022-01-22T22:01:01 [Europe/London]]
func (h *AdminHandler) HandleCheck(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil {
		return nil
	}

	var date, zone string
	args := c.Args()
	if len(args) >= 1 {
		date = args[0]
	}
	if len(args) >= 2 {
		zone = args[1]
	}

	p, err := h.preview.Preview(context.Background(), sender.ID, msg.Time(), date, zone, msg.Text)
	if err != nil {
		var parseErr *checker.ParseError
		switch {
		case errors.As(err, &parseErr):
			return c.Reply(fmt.Sprintf("Failed to parse date `%s`\nMust be of format `%s`", parseErr.Input, parseErr.Layout))
		case errors.Is(err, timezone.ErrInvalidTimezone):
			return c.Reply(fmt.Sprintf("Unknown timezone `%s`", zone))
		default:
			log.Error().Err(err).Msg("Failed to run check")
			return c.Reply("Failed to run check")
		}
	}

	info := "None"
	if p.Result.Key != nil {
		info = p.Result.Key.String()
	}

	return c.Reply(fmt.Sprintf("TZ: %s\nState: %s\nCheck Info: %s", p.Timezone, p.Result.Verdict, info))
}
