package engine

import (
	"fmt"
	"regexp"

	"certo/internal/model"
)

// runFact applies the check's single criterion to the knowledge base.
// Zero or multiple criteria is a malformed check; a missing key is a
// plain failure, because an absent fact cannot support a claim.
func (e *Engine) runFact(ck *model.FactCheck) outcome {
	criteria := 0
	for _, set := range []bool{ck.Has != "", ck.Empty != "", ck.Equals != "", ck.Matches != ""} {
		if set {
			criteria++
		}
	}
	if criteria != 1 {
		return errored("fact check needs exactly one of has, empty, equals, matches")
	}

	switch {
	case ck.Has != "":
		value, ok := e.facts.Lookup(ck.Has)
		if !ok {
			return failed(fmt.Sprintf("fact not found: %s", ck.Has), "")
		}
		if value == "" {
			return failed(fmt.Sprintf("fact is empty: %s", ck.Has), "")
		}
		return passed(fmt.Sprintf("%s=%s", ck.Has, value), "")

	case ck.Empty != "":
		value, ok := e.facts.Lookup(ck.Empty)
		if !ok {
			return failed(fmt.Sprintf("fact not found: %s", ck.Empty), "")
		}
		if value != "" {
			return failed(fmt.Sprintf("fact is not empty: %s=%s", ck.Empty, value), "")
		}
		return passed(fmt.Sprintf("%s is empty", ck.Empty), "")

	case ck.Equals != "":
		value, ok := e.facts.Lookup(ck.Equals)
		if !ok {
			return failed(fmt.Sprintf("fact not found: %s", ck.Equals), "")
		}
		if value != ck.Value {
			return failed(fmt.Sprintf("fact mismatch: %s=%s, expected %s", ck.Equals, value, ck.Value), "")
		}
		return passed(fmt.Sprintf("%s=%s", ck.Equals, value), "")

	default: // Matches
		value, ok := e.facts.Lookup(ck.Matches)
		if !ok {
			return failed(fmt.Sprintf("fact not found: %s", ck.Matches), "")
		}
		re, err := regexp.Compile(ck.Pattern)
		if err != nil {
			return errored(fmt.Sprintf("invalid pattern %q: %v", ck.Pattern, err))
		}
		if !re.MatchString(value) {
			return failed(fmt.Sprintf("fact does not match: %s=%s, pattern %s", ck.Matches, value, ck.Pattern), "")
		}
		return passed(fmt.Sprintf("%s=%s", ck.Matches, value), "")
	}
}
