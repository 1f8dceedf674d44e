// Package model defines the data models for the quads bot.
package model

import (
	"slices"
	"time"
)

// User is the per-user statistics record.
// It is created on the first message from a user and only removed by /clear.
type User struct {
	TelegramID    int64     `db:"telegram_id" json:"telegram_id"`
	Username      string    `db:"username" json:"username"`
	Timezone      string    `db:"timezone" json:"tz"`
	CheckedTotal  int64     `db:"checked_total" json:"checked_total"`
	CheckedUnique int64     `db:"checked_unique" json:"checked_unique"`
	Deleted       int64     `db:"deleted" json:"deleted"`
	Passed        int64     `db:"passed" json:"passed"`
	MessagesTotal int64     `db:"messages_total" json:"messages_total"`
	CheckIDCache  []string  `db:"check_id_cache" json:"check_id_cache"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Verdict is the classification outcome for a message.
type Verdict string

// Verdicts returned by the checker.
const (
	VerdictChecked         Verdict = "CHECKED"
	VerdictPass            Verdict = "PASS"
	VerdictDelete          Verdict = "DELETE"
	VerdictCheckThenDelete Verdict = "CHECK_THEN_DELETE"
)

// IsCheck reports whether the verdict credits the user with a check.
func (v Verdict) IsCheck() bool {
	return v == VerdictChecked || v == VerdictCheckThenDelete
}

// RemovesMessage reports whether the message gets deleted, now or later.
func (v Verdict) RemovesMessage() bool {
	return v == VerdictDelete || v == VerdictCheckThenDelete
}

// RecordVerdict applies a verdict to the user's counters.
// For checks the key is looked up in the recent-key cache: unseen keys count
// as unique and are appended, then the cache keeps only the last cacheSize
// entries. Returns true when the check was unique.
func (u *User) RecordVerdict(v Verdict, key string, cacheSize int) bool {
	unique := false

	switch v {
	case VerdictChecked, VerdictCheckThenDelete:
		u.CheckedTotal++
		if !slices.Contains(u.CheckIDCache, key) {
			unique = true
			u.CheckedUnique++
			u.CheckIDCache = append(u.CheckIDCache, key)
		}
	case VerdictDelete:
		u.Deleted++
	case VerdictPass:
		u.Passed++
	}

	if cacheSize > 0 && len(u.CheckIDCache) > cacheSize {
		u.CheckIDCache = slices.Clone(u.CheckIDCache[len(u.CheckIDCache)-cacheSize:])
	}

	u.MessagesTotal++
	return unique
}

// Setting keys stored in bot_settings.
const (
	SettingAdminID = "admin_id"
)
