// Package bot wires the Telegram client, middleware and handlers together.
package bot

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"quads-bot/internal/config"
)

// SeenUsers tracks users who have talked in a whitelisted group. They may
// then use the bot in private chat.
type SeenUsers struct {
	mu    sync.RWMutex
	users map[int64]struct{}
}

// NewSeenUsers creates an empty SeenUsers.
func NewSeenUsers() *SeenUsers {
	return &SeenUsers{users: make(map[int64]struct{})}
}

// Allow marks a user as allowed to use private chat.
func (s *SeenUsers) Allow(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = struct{}{}
}

// Allowed checks if a user is allowed to use private chat.
func (s *SeenUsers) Allowed(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok
}

// WhitelistMiddleware drops updates from chats that are not whitelisted.
// Private chats pass when the whitelist is empty, the user was seen in a
// whitelisted group, or admins reports the user as an admin. Seen users are
// kept in memory only, so admins stay reachable after a restart.
func WhitelistMiddleware(cfg *config.Config, seen *SeenUsers, admins AdminChecker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()

			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if len(cfg.Whitelist.Chats) == 0 || seen.Allowed(sender.ID) || isAdmin(admins, sender.ID) {
					return next(c)
				}

				log.Debug().
					Int64("user_id", sender.ID).
					Msg("Ignoring private chat from user not seen in a whitelisted group")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			seen.Allow(sender.ID)

			return next(c)
		}
	}
}

// AdminChecker decides who may run admin commands.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

func isAdmin(admins AdminChecker, userID int64) bool {
	if admins == nil {
		return false
	}
	ok, err := admins.IsAdmin(context.Background(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Admin check failed")
		return false
	}
	return ok
}

// AdminMiddleware silently drops commands from non-admins.
func AdminMiddleware(admins AdminChecker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			ok, err := admins.IsAdmin(context.Background(), sender.ID)
			if err != nil {
				log.Error().Err(err).Int64("user_id", sender.ID).Msg("Admin check failed")
				return nil
			}
			if !ok {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return nil
			}

			return next(c)
		}
	}
}

// PrivateOnlyMiddleware runs the handler in private chats only. Elsewhere
// the update goes to fallback, so a command typed in a group is still an
// ordinary group message.
func PrivateOnlyMiddleware(fallback tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat != nil && chat.Type == tele.ChatPrivate {
				return next(c)
			}
			if fallback != nil {
				return fallback(c)
			}
			return nil
		}
	}
}

// corrKey is the context key holding the update's correlation id.
const corrKey = "corr"

// LoggingMiddleware tags each update with a correlation id and logs it.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			corr := uuid.NewString()
			c.Set(corrKey, corr)

			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug().Str("corr", corr)
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received message")

			err := next(c)
			if err != nil {
				log.Error().Err(err).Str("corr", corr).Msg("Handler failed")
			}
			return err
		}
	}
}

// RecoveryMiddleware stops a panicking handler from taking the bot down.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("stack", string(debug.Stack())).
						Msg("Recovered from panic in handler")
					err = nil
				}
			}()
			return next(c)
		}
	}
}
