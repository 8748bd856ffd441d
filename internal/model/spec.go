package model

import (
	"fmt"
	"time"
)

// ClaimStatus is the lifecycle state of a claim
type ClaimStatus string

const (
	ClaimPending    ClaimStatus = "pending"    // Not yet confirmed by a human
	ClaimConfirmed  ClaimStatus = "confirmed"  // Accepted; its checks are executed
	ClaimRejected   ClaimStatus = "rejected"   // Explicitly refuted; never executed
	ClaimSuperseded ClaimStatus = "superseded" // Replaced by a newer claim; never executed
)

// Level controls how strictly a claim is enforced
type Level string

const (
	LevelBlock Level = "block" // Failures block
	LevelWarn  Level = "warn"  // Failures still fail the run; severity is cosmetic
	LevelSkip  Level = "skip"  // Checks are reported but never executed
)

// IssueStatus is the lifecycle state of an issue
type IssueStatus string

const (
	IssueOpen   IssueStatus = "open"
	IssueClosed IssueStatus = "closed"
)

// Claim is an assertion about the codebase, optionally carrying checks
// that verify it against the real project.
type Claim struct {
	ID      string      `json:"id" toml:"id"`
	Text    string      `json:"text" toml:"text"`
	Status  ClaimStatus `json:"status" toml:"status"`
	Level   Level       `json:"level" toml:"level"`
	Author  string      `json:"author,omitempty" toml:"author,omitempty"`
	Tags    []string    `json:"tags,omitempty" toml:"tags,omitempty"`
	Closes  []string    `json:"closes,omitempty" toml:"closes,omitempty"`
	Checks  []Check     `json:"checks,omitempty" toml:"-"`
	Created time.Time   `json:"created,omitempty" toml:"created,omitempty"`
	Updated time.Time   `json:"updated,omitempty" toml:"updated,omitempty"`
}

// HasTag reports whether the claim carries the given tag.
func (c *Claim) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Issue is an open question or deferred decision.
type Issue struct {
	ID           string      `json:"id" toml:"id"`
	Text         string      `json:"text" toml:"text"`
	Status       IssueStatus `json:"status" toml:"status"`
	ClosedReason string      `json:"closed_reason,omitempty" toml:"closed_reason,omitempty"`
	Tags         []string    `json:"tags,omitempty" toml:"tags,omitempty"`
	Created      time.Time   `json:"created,omitempty" toml:"created,omitempty"`
	Updated      time.Time   `json:"updated,omitempty" toml:"updated,omitempty"`
}

// ModAction is what a context modification does to targeted claims
type ModAction string

const (
	ModRelax   ModAction = "relax"   // block -> warn
	ModPromote ModAction = "promote" // warn -> block
	ModExempt  ModAction = "exempt"  // any -> skip
)

// Modification targets claims by ID, tag, or current level and adjusts
// their effective enforcement level while the owning context is active.
type Modification struct {
	Action ModAction `json:"action" toml:"action"`
	Claim  string    `json:"claim,omitempty" toml:"claim,omitempty"`
	Topic  string    `json:"topic,omitempty" toml:"topic,omitempty"`
	Level  Level     `json:"level,omitempty" toml:"level,omitempty"`
}

// Context is a scoped override of claim enforcement levels.
type Context struct {
	ID            string         `json:"id" toml:"id"`
	Name          string         `json:"name" toml:"name"`
	Description   string         `json:"description,omitempty" toml:"description,omitempty"`
	Enabled       bool           `json:"enabled" toml:"enabled"`
	Expires       time.Time      `json:"expires,omitempty" toml:"expires,omitempty"`
	Modifications []Modification `json:"modifications,omitempty" toml:"modifications,omitempty"`
	Created       time.Time      `json:"created,omitempty" toml:"created,omitempty"`
	Updated       time.Time      `json:"updated,omitempty" toml:"updated,omitempty"`
}

// Active reports whether the context applies at the given time.
func (c *Context) Active(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	if !c.Expires.IsZero() && now.After(c.Expires) {
		return false
	}
	return true
}

// Spec is the whole versioned document: claims, issues, contexts, and
// standalone checks, in declaration order. The engine treats it as a
// read-only value; persistence belongs to the caller.
type Spec struct {
	Name     string    `json:"name"`
	Version  int       `json:"version"`
	Author   string    `json:"author,omitempty"`
	Claims   []Claim   `json:"claims,omitempty"`
	Issues   []Issue   `json:"issues,omitempty"`
	Contexts []Context `json:"contexts,omitempty"`
	Checks   []Check   `json:"checks,omitempty"` // top-level checks not owned by a claim
}

// Claim returns the claim with the given ID, or nil.
func (s *Spec) Claim(id string) *Claim {
	for i := range s.Claims {
		if s.Claims[i].ID == id {
			return &s.Claims[i]
		}
	}
	return nil
}

// Issue returns the issue with the given ID, or nil.
func (s *Spec) Issue(id string) *Issue {
	for i := range s.Issues {
		if s.Issues[i].ID == id {
			return &s.Issues[i]
		}
	}
	return nil
}

// Context returns the context with the given ID, or nil.
func (s *Spec) Context(id string) *Context {
	for i := range s.Contexts {
		if s.Contexts[i].ID == id {
			return &s.Contexts[i]
		}
	}
	return nil
}

// HasID reports whether any claim, issue, context, or check (nested or
// standalone) carries the given ID.
func (s *Spec) HasID(id string) bool {
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
	for i := range s.Issues {
		if s.Issues[i].ID == id {
			return true
		}
	}
	for i := range s.Contexts {
		if s.Contexts[i].ID == id {
			return true
		}
	}
	for _, ck := range s.Checks {
		if ck.CheckID() == id {
			return true
		}
	}
	return false
}

// ValidateIDs enforces document-wide ID uniqueness across all entity
// kinds.
func (s *Spec) ValidateIDs() error {
	seen := make(map[string]bool)
	claim := func(id string) error {
		if id == "" {
			return fmt.Errorf("empty id")
		}
		if seen[id] {
			return fmt.Errorf("duplicate id: %s", id)
		}
		seen[id] = true
		return nil
	}

	for i := range s.Claims {
		if err := claim(s.Claims[i].ID); err != nil {
			return err
		}
		for _, ck := range s.Claims[i].Checks {
			if err := claim(ck.CheckID()); err != nil {
				return err
			}
		}
	}
	for i := range s.Issues {
		if err := claim(s.Issues[i].ID); err != nil {
			return err
		}
	}
	for i := range s.Contexts {
		if err := claim(s.Contexts[i].ID); err != nil {
			return err
		}
	}
	for _, ck := range s.Checks {
		if err := claim(ck.CheckID()); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveLevel resolves a claim's enforcement level under the active
// contexts. Modifications apply in declaration order; the last matching
// one wins for each step.
func (s *Spec) EffectiveLevel(c *Claim, now time.Time) Level {
	level := c.Level
	if level == "" {
		level = LevelWarn
	}

	for i := range s.Contexts {
		ctx := &s.Contexts[i]
		if !ctx.Active(now) {
			continue
		}
		for _, mod := range ctx.Modifications {
			if !modTargets(&mod, c, level) {
				continue
			}
			switch mod.Action {
			case ModExempt:
				level = LevelSkip
			case ModRelax:
				if level == LevelBlock {
					level = LevelWarn
				}
			case ModPromote:
				if level == LevelWarn {
					level = LevelBlock
				}
			}
		}
	}
	return level
}

// modTargets reports whether a modification selects the claim, given the
// claim's current effective level.
func modTargets(mod *Modification, c *Claim, current Level) bool {
	switch {
	case mod.Claim != "":
		return mod.Claim == c.ID
	case mod.Topic != "":
		return c.HasTag(mod.Topic)
	case mod.Level != "":
		return mod.Level == current
	default:
		return false
	}
}
