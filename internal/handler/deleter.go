package handler

import (
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"quads-bot/internal/telemetry"
)

// Deleter removes messages now or after a fixed delay. Failures (message
// already gone, missing rights) are logged and counted, never returned.
type Deleter struct {
	api   API
	delay time.Duration
}

// NewDeleter creates a Deleter that waits delay in DeleteAfter.
func NewDeleter(api API, delay time.Duration) *Deleter {
	return &Deleter{api: api, delay: delay}
}

// DeleteNow deletes msg and reports whether it worked.
func (d *Deleter) DeleteNow(msg tele.Editable) bool {
	if err := d.api.Delete(msg); err != nil {
		messageID, chatID := msg.MessageSig()
		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int64("chat_id", chatID).
			Msg("Failed to delete message")
		telemetry.IncDeleteFailures()
		return false
	}
	return true
}

// DeleteAfter schedules msg for deletion after the delay and returns at
// once. The returned timer can be stopped; nothing else needs it.
func (d *Deleter) DeleteAfter(msg tele.Editable) *time.Timer {
	return time.AfterFunc(d.delay, func() {
		d.DeleteNow(msg)
	})
}
