// Package checker decides what happens to a message based on when it was
// sent and what it says.
//
// A message sent on a patterned timestamp (e.g. 22:22, four repeated digits)
// whose text names that pattern ("quads") is CHECKED. A message on a
// patterned timestamp with other text is PASSed. Anything else is DELETEd.
// Forwarded messages are classified at both their receipt and original send
// time and the two results are merged through a fixed transition table.
package checker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"quads-bot/internal/model"
)

// ErrUnhandledStateCombination is returned when the forward merge table has
// no entry for a pair of verdicts.
var ErrUnhandledStateCombination = errors.New("unhandled state combination")

// Key identifies one check occurrence: the rule, the digit string up to the
// end of the match and which clock produced it. Two checks with equal keys
// are the same event.
type Key struct {
	Rule   string
	Prefix string
	Index  int
}

// String serializes the key for the user's check cache.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Rule, k.Prefix, k.Index)
}

// Result is the outcome of classifying one message.
type Result struct {
	Verdict model.Verdict
	// Key is set for CHECKED and CHECK_THEN_DELETE.
	Key    *Key
	Digits [2]string
}

// KeyString returns the serialized key, or "" when there is none.
func (r Result) KeyString() string {
	if r.Key == nil {
		return ""
	}
	return r.Key.String()
}

type verdictPair struct {
	message model.Verdict
	forward model.Verdict
}

// forwardTransitions merges (receipt verdict, original verdict).
// (CHECKED, PASS) and (PASS, CHECKED) are deliberately absent.
var forwardTransitions = map[verdictPair]model.Verdict{
	{model.VerdictChecked, model.VerdictChecked}: model.VerdictChecked,
	{model.VerdictChecked, model.VerdictDelete}:  model.VerdictPass,
	{model.VerdictDelete, model.VerdictChecked}:  model.VerdictCheckThenDelete,
	{model.VerdictDelete, model.VerdictDelete}:   model.VerdictDelete,
	{model.VerdictPass, model.VerdictPass}:       model.VerdictPass,
	{model.VerdictPass, model.VerdictDelete}:     model.VerdictPass,
	{model.VerdictDelete, model.VerdictPass}:     model.VerdictDelete,
}

// MergeForwarded looks up the merged verdict for a forwarded message.
func MergeForwarded(message, forward model.Verdict) (model.Verdict, error) {
	v, ok := forwardTransitions[verdictPair{message, forward}]
	if !ok {
		return "", fmt.Errorf("%w: message=%s forward=%s", ErrUnhandledStateCombination, message, forward)
	}
	return v, nil
}

// Checker classifies messages. It holds no mutable state and is safe for
// concurrent use.
type Checker struct {
	jokeRules bool
}

// Option configures a Checker.
type Option func(*Checker)

// WithJokeRules toggles the April 1st rule set.
func WithJokeRules(enabled bool) Option {
	return func(c *Checker) {
		c.jokeRules = enabled
	}
}

// New creates a Checker. Joke rules are enabled by default.
func New(opts ...Option) *Checker {
	c := &Checker{jokeRules: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the rules active for sentAt in loc.
func (c *Checker) Rules(sentAt time.Time, loc *time.Location) []Rule {
	return ActiveRules(c.jokeRules && IsAprilFools(sentAt, loc))
}

// Check classifies a message sent at sentAt, seen from loc.
func (c *Checker) Check(sentAt time.Time, loc *time.Location, text string) Result {
	digits := DigitStrings(sentAt, loc)
	text = strings.ToLower(text)

	eval := Evaluate(digits, text, c.Rules(sentAt, loc))

	switch {
	case eval.Matched:
		key := &Key{
			Rule:   eval.Rule,
			Prefix: eval.Digits[:eval.End],
			Index:  eval.Index,
		}
		log.Debug().
			Strs("digits", digits[:]).
			Str("rule", eval.Rule).
			Str("check_key", key.String()).
			Msg("Checked")
		return Result{Verdict: model.VerdictChecked, Key: key, Digits: digits}
	case eval.TimestampMatched:
		log.Debug().Strs("digits", digits[:]).Msg("Passed")
		return Result{Verdict: model.VerdictPass, Digits: digits}
	default:
		log.Debug().Strs("digits", digits[:]).Msg("Deleted")
		return Result{Verdict: model.VerdictDelete, Digits: digits}
	}
}

// CheckForwarded classifies a forwarded message. The receipt time and the
// original send time are checked separately and merged; the key always
// comes from the original send time, which is when the pattern happened.
func (c *Checker) CheckForwarded(receivedAt, forwardedAt time.Time, loc *time.Location, text string) (Result, error) {
	message := c.Check(receivedAt, loc, text)
	forward := c.Check(forwardedAt, loc, text)

	merged, err := MergeForwarded(message.Verdict, forward.Verdict)
	if err != nil {
		return Result{}, err
	}

	result := Result{Verdict: merged, Digits: forward.Digits}
	if merged.IsCheck() {
		result.Key = forward.Key
	}
	return result, nil
}
