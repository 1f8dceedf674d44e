package checker

// Evaluation is the Pattern Matcher result for one message.
type Evaluation struct {
	// Matched is set when a rule matched both the timestamp and the text.
	Matched bool
	// TimestampMatched is set when any rule matched a digit string,
	// with or without the text.
	TimestampMatched bool

	Rule   string
	Digits string
	End    int
	Index  int
}

// Evaluate runs the rules in order against both digit strings (24 hour
// first). The first rule whose timestamp and text both match wins. A
// timestamp-only match is remembered and scanning continues.
func Evaluate(digits [2]string, text string, rules []Rule) Evaluation {
	var eval Evaluation

	for _, rule := range rules {
		for idx, d := range digits {
			end, ok := find(rule, d)
			if !ok {
				continue
			}
			eval.TimestampMatched = true

			if matchText(rule, text) {
				eval.Matched = true
				eval.Rule = rule.Name
				eval.Digits = d
				eval.End = end
				eval.Index = idx
				return eval
			}
		}
	}

	return eval
}

// find returns the end offset of the rule's timestamp match in d.
// A regex error can only be a timeout and counts as no match.
func find(rule Rule, d string) (int, bool) {
	m, err := rule.Digits.FindStringMatch(d)
	if err != nil || m == nil {
		return 0, false
	}
	return m.Index + m.Length, true
}

func matchText(rule Rule, text string) bool {
	ok, err := rule.Text.MatchString(text)
	return err == nil && ok
}
