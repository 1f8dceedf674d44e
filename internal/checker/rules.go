package checker

import (
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single regex evaluation. Digit strings are 14
// characters long, so this only guards against a badly written rule.
const matchTimeout = 100 * time.Millisecond

// Rule pairs a timestamp pattern with the text that acknowledges it.
// Timestamp patterns run against the digit strings and may use
// backreferences; text patterns run against the lower-cased message.
type Rule struct {
	Name   string
	Digits *regexp2.Regexp
	Text   *regexp2.Regexp
}

func mustRule(name, digits, text string) Rule {
	d := regexp2.MustCompile(digits, regexp2.None)
	d.MatchTimeout = matchTimeout
	tx := regexp2.MustCompile(text, regexp2.None)
	tx.MatchTimeout = matchTimeout
	return Rule{Name: name, Digits: d, Text: tx}
}

// The date prefix is YYYYMMDD, so the run of repeated digits starts at the
// hour for quads and sexts and moves left into the date for longer runs.
var baseRules = []Rule{
	mustRule("quads", `^........(.)\1{3}`, `quads`), // 2022-03-01T22:22:00
	mustRule("sexts", `^........(.)\1{5}`, `sexts`), // 2022-03-01T22:22:22
	mustRule("octs", `^......(.)\1{7}`, `octs`),     // 2022-03-22T22:22:22
	mustRule("decs", `^....(.)\1{9}`, `decs`),       // 2022-11-11T11:11:11
	mustRule("dodecs", `^..(.)\1{11}`, `dodecs`),    // 2011-11-11T11:11:11
}

// jokeRules are only active on April 1st.
var jokeRules = []Rule{
	mustRule("fibs", `11235?8?(13)?`, `fibs`),                                   // 2022-04-01T11:23:58
	mustRule("incs", `12345?`, `incs`),                                          // 2022-04-01T12:34:50
	mustRule("sixty nine", `69`, `sixty nine`),                                  // 2069-04-01T00:00:00
	mustRule("blaze it", `^........0420`, `(blaze it|blazeit)`),                 // 2022-04-01T04:20:00
	mustRule("leet", `^........1337`, `(leet|l33t|1337)`),                       // 2022-04-01T13:37:00
	mustRule("tooth hurty", `^........0230`, `(tooth hurty|ow)`),                // 2022-04-01T02:30:00
	mustRule("number two", `^........0002`, `(poop|poopie|number 2|no\. 2)`),    // 2022-04-01T00:02:00
	mustRule("number one", `^........0001`, `(peepee|pee pee|number 1|no\. 1)`), // 2022-04-01T00:01:00
	mustRule("pi", `^........0314`, `(pi|pie)`),                                 // 2022-04-01T03:14:00
}

// BaseRules returns the rules active every day, in evaluation order.
func BaseRules() []Rule {
	return append([]Rule(nil), baseRules...)
}

// ActiveRules returns the rule list for a day. Joke rules are appended after
// the base rules when special is set, so base rules always win ties.
func ActiveRules(special bool) []Rule {
	rules := BaseRules()
	if special {
		rules = append(rules, jokeRules...)
	}
	return rules
}
