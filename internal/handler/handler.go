// Package handler provides Telegram bot command and message handlers.
package handler

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"quads-bot/internal/service"
)

// API is the part of the Telegram client the handlers call directly.
// *tele.Bot implements it.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// DisplayName is the @username, or the first and last name when the user
// has none.
func DisplayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// EffectiveSender is the author the message is credited to: the original
// author of a forward when Telegram discloses it, otherwise the sender.
func EffectiveSender(msg *tele.Message) *tele.User {
	if msg.OriginalSender != nil {
		return msg.OriginalSender
	}
	return msg.Sender
}

// ToServiceMessage extracts what the check service needs from msg.
func ToServiceMessage(msg *tele.Message) service.Message {
	sender := EffectiveSender(msg)

	out := service.Message{
		Username: DisplayName(sender),
		SentAt:   msg.Time(),
		Text:     msg.Text,
	}
	if sender != nil {
		out.UserID = sender.ID
	}
	if out.Text == "" {
		out.Text = msg.Caption
	}
	if msg.OriginalUnixtime != 0 {
		forwardedAt := time.Unix(int64(msg.OriginalUnixtime), 0)
		out.ForwardedAt = &forwardedAt
	}
	return out
}

func isPrivate(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}
