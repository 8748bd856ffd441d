package engine

import (
	"fmt"
	"time"

	"certo/internal/model"
)

// Unit is one executable check together with its owning claim, if any.
// Units are built in document order: each claim's checks in declaration
// order, then standalone checks.
type Unit struct {
	Check model.Check
	Claim *model.Claim // nil for standalone checks
	Level model.Level  // owning claim's effective level; "" for standalone
}

// StructuralError aborts a run before any execution: the document is
// unusable or a selection references an unknown ID. Mapped to exit
// code 2.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string { return e.Msg }

// buildUnits flattens the document into execution order.
func buildUnits(s *model.Spec, now time.Time) []Unit {
	var units []Unit
	for i := range s.Claims {
		claim := &s.Claims[i]
		level := s.EffectiveLevel(claim, now)
		for _, ck := range claim.Checks {
			units = append(units, Unit{Check: ck, Claim: claim, Level: level})
		}
	}
	for _, ck := range s.Checks {
		units = append(units, Unit{Check: ck})
	}
	return units
}

// idSet resolves a selection list against the document. Every ID must
// name a claim or a check; anything else is structural.
func idSet(s *model.Spec, ids []string, flag string) (map[string]bool, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !selectable(s, id) {
			return nil, &StructuralError{Msg: fmt.Sprintf("%s: unknown id: %s", flag, id)}
		}
		set[id] = true
	}
	return set, nil
}

// selectable reports whether the ID names a claim or a check.
func selectable(s *model.Spec, id string) bool {
	for i := range s.Claims {
		if s.Claims[i].ID == id {
			return true
		}
		for _, ck := range s.Claims[i].Checks {
			if ck.CheckID() == id {
				return true
			}
		}
	}
	for _, ck := range s.Checks {
		if ck.CheckID() == id {
			return true
		}
	}
	return false
}

// matches reports whether the unit is named by the set, directly or via
// its owning claim.
func (u *Unit) matches(set map[string]bool) bool {
	if set[u.Check.CheckID()] {
		return true
	}
	return u.Claim != nil && set[u.Claim.ID]
}

// claimID returns the owning claim's ID, or "".
func (u *Unit) claimID() string {
	if u.Claim == nil {
		return ""
	}
	return u.Claim.ID
}

// claimText returns the owning claim's text, or "".
func (u *Unit) claimText() string {
	if u.Claim == nil {
		return ""
	}
	return u.Claim.Text
}
