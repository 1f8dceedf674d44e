package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"quads-bot/internal/model"
	"quads-bot/internal/service"
)

// Checks classifies messages and stores timezones.
type Checks interface {
	Process(ctx context.Context, msg service.Message) (*service.Outcome, error)
	SetTimezone(ctx context.Context, userID int64, username, zone string) error
}

// Leaderboard renders the leaderboard.
type Leaderboard interface {
	Render(ctx context.Context) (string, error)
}

// ZoneFinder maps coordinates to a zone name.
type ZoneFinder interface {
	At(lat, lng float64) (string, error)
}

// MessageHandler handles group messages, locations and /leaderboard.
type MessageHandler struct {
	checks      Checks
	leaderboard Leaderboard
	finder      ZoneFinder
	api         API
	deleter     *Deleter
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(checks Checks, leaderboard Leaderboard, finder ZoneFinder, api API, deleter *Deleter) *MessageHandler {
	return &MessageHandler{
		checks:      checks,
		leaderboard: leaderboard,
		finder:      finder,
		api:         api,
		deleter:     deleter,
	}
}

// HandleMessage classifies a group message and acts on the verdict.
func (h *MessageHandler) HandleMessage(c tele.Context) error {
	h.process(c)
	return nil
}

// process classifies and acts. It returns "" when the message was skipped or
// could not be processed.
func (h *MessageHandler) process(c tele.Context) model.Verdict {
	msg := c.Message()
	if msg == nil || c.Chat() == nil || isPrivate(c) || msg.LastEdit != 0 {
		return ""
	}

	in := ToServiceMessage(msg)
	if in.UserID == 0 {
		return ""
	}

	out, err := h.checks.Process(context.Background(), in)
	if err != nil {
		log.Error().
			Err(err).
			Int64("user_id", in.UserID).
			Int64("chat_id", c.Chat().ID).
			Msg("Failed to process message")
		return ""
	}

	switch out.Verdict {
	case model.VerdictChecked:
		h.replyChecked(c)
	case model.VerdictCheckThenDelete:
		h.replyChecked(c)
		h.deleter.DeleteAfter(msg)
	case model.VerdictDelete:
		h.deleter.DeleteNow(msg)
	case model.VerdictPass:
	}

	return out.Verdict
}

func (h *MessageHandler) replyChecked(c tele.Context) {
	if err := c.Reply("Checked"); err != nil {
		log.Warn().Err(err).Msg("Failed to reply")
	}
}

// HandleLeaderboard handles the /leaderboard command. In groups the command
// message is itself classified first and the board is only sent when the
// message stays.
func (h *MessageHandler) HandleLeaderboard(c tele.Context) error {
	if !isPrivate(c) {
		if v := h.process(c); v.RemovesMessage() {
			return nil
		}
	}

	board, err := h.leaderboard.Render(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to render leaderboard")
		return c.Reply("Failed to load the leaderboard")
	}
	return c.Reply(board, tele.ModeHTML)
}

// HandleLocation sets the sender's timezone from a live location. Static
// locations are handled as ordinary messages.
func (h *MessageHandler) HandleLocation(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Location == nil || msg.Location.LivePeriod == 0 {
		return h.HandleMessage(c)
	}

	sender := c.Sender()
	if sender == nil {
		return nil
	}

	zone, err := h.finder.At(float64(msg.Location.Lat), float64(msg.Location.Lng))
	if err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("No timezone for location")
		return nil
	}

	if err := h.checks.SetTimezone(context.Background(), sender.ID, DisplayName(sender), zone); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to set timezone")
		return nil
	}

	confirm, err := h.api.Send(c.Chat(), fmt.Sprintf("Set your timezone to %s", zone))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to send timezone confirmation")
	} else {
		h.deleter.DeleteAfter(confirm)
	}

	h.deleter.DeleteNow(msg)
	return nil
}
