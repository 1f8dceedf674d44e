package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"quads-bot/internal/checker"
	"quads-bot/internal/model"
	"quads-bot/internal/pkg/lock"
	"quads-bot/internal/repository"
	"quads-bot/internal/telemetry"
	"quads-bot/internal/timezone"
)

// Message is what the check service needs to know about an incoming message.
type Message struct {
	// UserID and Username identify the effective sender: the original author
	// for forwards when Telegram reveals it.
	UserID   int64
	Username string
	SentAt   time.Time
	// ForwardedAt is the original send time of a forwarded message.
	ForwardedAt *time.Time
	Text        string
}

// Outcome is the result of processing one message.
type Outcome struct {
	Verdict  model.Verdict
	Key      string
	Unique   bool
	Timezone string
}

// DefaultLockTimeout bounds how long an update waits for the user's lock.
const DefaultLockTimeout = 10 * time.Second

// CheckService classifies messages and keeps the per-user statistics.
type CheckService struct {
	users       UserStore
	checker     *checker.Checker
	userLock    *lock.UserLock
	lockTimeout time.Duration
	defaultTZ   string
	cacheSize   int
}

// NewCheckService creates a new CheckService instance.
func NewCheckService(
	users UserStore,
	c *checker.Checker,
	userLock *lock.UserLock,
	lockTimeout time.Duration,
	defaultTZ string,
	cacheSize int,
) *CheckService {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &CheckService{
		users:       users,
		checker:     c,
		userLock:    userLock,
		lockTimeout: lockTimeout,
		defaultTZ:   defaultTZ,
		cacheSize:   cacheSize,
	}
}

// withUserLock runs fn under the user's lock, giving up with
// lock.ErrLockTimeout when another update holds it past lockTimeout.
func (s *CheckService) withUserLock(ctx context.Context, userID int64, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	return s.userLock.WithLockContext(lockCtx, userID, fn)
}

// location resolves a stored zone name, falling back to the default for
// records written before a zone was validated.
func (s *CheckService) location(name string) (*time.Location, string) {
	loc, err := timezone.Resolve(name)
	if err == nil {
		return loc, name
	}

	log.Warn().Err(err).Str("timezone", name).Msg("Stored timezone invalid, using default")
	loc, err = timezone.Resolve(s.defaultTZ)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, s.defaultTZ
}

func (s *CheckService) classify(msg Message, loc *time.Location) (checker.Result, error) {
	if msg.ForwardedAt != nil {
		return s.checker.CheckForwarded(msg.SentAt, *msg.ForwardedAt, loc, msg.Text)
	}
	return s.checker.Check(msg.SentAt, loc, msg.Text), nil
}

// Process classifies msg in the sender's timezone and records the verdict.
// The user record is loaded, updated and saved under the user's lock; if
// the lock stays busy past the lock timeout the error wraps
// lock.ErrLockTimeout and nothing is recorded.
// When a forwarded message hits an unlisted verdict combination the error
// wraps checker.ErrUnhandledStateCombination and no counter changes.
func (s *CheckService) Process(ctx context.Context, msg Message) (*Outcome, error) {
	var out *Outcome
	var procErr error

	telemetry.TimeFunc(telemetry.ProcessDuration, func() {
		procErr = s.withUserLock(ctx, msg.UserID, func() error {
			_, err := s.users.WithUser(ctx, msg.UserID, msg.Username, func(u *model.User) error {
				loc, tzName := s.location(u.Timezone)

				result, err := s.classify(msg, loc)
				if err != nil {
					return err
				}

				key := result.KeyString()
				unique := u.RecordVerdict(result.Verdict, key, s.cacheSize)
				out = &Outcome{
					Verdict:  result.Verdict,
					Key:      key,
					Unique:   unique,
					Timezone: tzName,
				}
				return nil
			})
			return err
		})
	})

	if procErr != nil {
		if errors.Is(procErr, checker.ErrUnhandledStateCombination) {
			telemetry.IncUnhandledCombinations()
		}
		return nil, fmt.Errorf("failed to process message: %w", procErr)
	}

	telemetry.ObserveVerdict(string(out.Verdict), out.Unique)

	log.Info().
		Int64("user_id", msg.UserID).
		Str("verdict", string(out.Verdict)).
		Str("check_key", out.Key).
		Bool("unique", out.Unique).
		Bool("forwarded", msg.ForwardedAt != nil).
		Msg("Message processed")

	return out, nil
}

// Preview is a dry-run classification for the /check command.
type Preview struct {
	Timezone string
	SentAt   time.Time
	Result   checker.Result
}

// Preview classifies text as if sent at date (DateInputLayout, wall clock in
// the zone) without touching any counters. An empty date means at. An empty
// tzOverride means the user's stored zone.
func (s *CheckService) Preview(ctx context.Context, userID int64, at time.Time, date, tzOverride, text string) (*Preview, error) {
	tzName := tzOverride
	if tzName == "" {
		tzName = s.defaultTZ
		user, err := s.users.GetByID(ctx, userID)
		switch {
		case err == nil:
			tzName = user.Timezone
		case !errors.Is(err, repository.ErrUserNotFound):
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
	}

	loc, err := timezone.Resolve(tzName)
	if err != nil {
		return nil, err
	}

	sentAt := at
	if date != "" {
		sentAt, err = checker.ParseDate(date, loc)
		if err != nil {
			return nil, err
		}
	}

	return &Preview{
		Timezone: tzName,
		SentAt:   sentAt,
		Result:   s.checker.Check(sentAt, loc, text),
	}, nil
}

// DigitStrings renders at in the user's stored zone, for /stats.
func (s *CheckService) DigitStrings(ctx context.Context, userID int64, at time.Time) ([2]string, string, error) {
	tzName := s.defaultTZ
	user, err := s.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		tzName = user.Timezone
	case !errors.Is(err, repository.ErrUserNotFound):
		return [2]string{}, "", fmt.Errorf("failed to load user: %w", err)
	}

	loc, tzName := s.location(tzName)
	return checker.DigitStrings(at, loc), tzName, nil
}

// SetTimezone stores zone as the user's timezone after validating it.
func (s *CheckService) SetTimezone(ctx context.Context, userID int64, username, zone string) error {
	if _, err := timezone.Resolve(zone); err != nil {
		return err
	}

	err := s.withUserLock(ctx, userID, func() error {
		_, err := s.users.WithUser(ctx, userID, username, func(u *model.User) error {
			u.Timezone = zone
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}

	telemetry.IncTimezonesSet()
	log.Info().Int64("user_id", userID).Str("timezone", zone).Msg("Timezone set")
	return nil
}
