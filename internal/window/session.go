package window

import (
	"errors"
	"time"
)

var ErrOverrideUnavailable = errors.New("override is not available for this date")

// Session is one terminal's view: the selected service date plus the
// transient staff override. It is not safe for concurrent use.
type Session struct {
	policy   Policy
	selected time.Time
	override bool
}

// NewSession starts on tomorrow, the usual service date.
func NewSession(policy Policy, now time.Time) *Session {
	return &Session{policy: policy, selected: policy.Tomorrow(now)}
}

func (s *Session) Policy() Policy {
	return s.policy
}

func (s *Session) Selected() time.Time {
	return s.selected
}

func (s *Session) Key() string {
	return Key(s.selected)
}

func (s *Session) Override() bool {
	return s.override
}

// Select moves to date. Dates outside the horizon are ignored. Any change of
// date drops the override.
func (s *Session) Select(now, date time.Time) bool {
	date = DateOf(date, s.policy.location())
	if !s.policy.InHorizon(now, date) {
		return false
	}
	if date.Equal(s.selected) {
		return false
	}
	s.selected = date
	s.override = false
	return true
}

func (s *Session) Shift(now time.Time, offset int) bool {
	return s.Select(now, AddDays(s.selected, offset))
}

func (s *Session) Status(now time.Time) Status {
	return s.policy.Evaluate(now, s.selected)
}

// ToggleOverride always allows switching off; switching on needs a locked,
// staff-overridable status.
func (s *Session) ToggleOverride(now time.Time) error {
	if s.override {
		s.override = false
		return nil
	}
	status := s.Status(now)
	if !status.Locked || !status.StaffOverridable {
		return ErrOverrideUnavailable
	}
	s.override = true
	return nil
}

func (s *Session) Restricted(now time.Time) bool {
	return !Writable(s.Status(now), s.override)
}
