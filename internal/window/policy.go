package window

import (
	"fmt"
	"time"
)

type Reason string

const (
	ReasonPast          Reason = "past"
	ReasonTodayNotOpen  Reason = "today-not-yet-open"
	ReasonCutoffPassed  Reason = "cutoff-passed"
	ReasonBeyondHorizon Reason = "beyond-horizon"
	ReasonTodayOpen     Reason = "today-open"
	ReasonOpenTomorrow  Reason = "open-tomorrow"
	ReasonPreOrder      Reason = "pre-order"
)

type Status struct {
	Locked           bool   `json:"locked"`
	Reason           Reason `json:"reason"`
	StaffOverridable bool   `json:"staffOverridable"`
	Label            string `json:"label"`
}

type Policy struct {
	Location      *time.Location
	TodayOpenHour int
	CutoffMinutes int
	HorizonDays   int
}

const (
	DefaultTodayOpenHour = 12
	DefaultCutoffMinutes = 23*60 + 15
	DefaultHorizonDays   = 7
)

func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		Location:      loc,
		TodayOpenHour: DefaultTodayOpenHour,
		CutoffMinutes: DefaultCutoffMinutes,
		HorizonDays:   DefaultHorizonDays,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p Policy) Today(now time.Time) time.Time {
	return DateOf(now, p.location())
}

func (p Policy) Tomorrow(now time.Time) time.Time {
	return AddDays(p.Today(now), 1)
}

// InHorizon reports whether target lies in [today, today+HorizonDays].
func (p Policy) InHorizon(now, target time.Time) bool {
	diff := daysBetween(p.Today(now), DateOf(target, p.location()))
	return diff >= 0 && diff <= p.HorizonDays
}

func (p Policy) cutoffLabel() string {
	return fmt.Sprintf("%02d:%02d", p.CutoffMinutes/60, p.CutoffMinutes%60)
}

// Evaluate computes the ordering restriction for target as seen at now.
func (p Policy) Evaluate(now, target time.Time) Status {
	loc := p.location()
	local := now.In(loc)
	diff := daysBetween(DateOf(local, loc), DateOf(target, loc))

	switch {
	case diff < 0:
		return Status{Locked: true, Reason: ReasonPast, Label: "VIEW ONLY (Past)"}
	case diff == 0:
		if local.Hour() < p.TodayOpenHour {
			return Status{Locked: true, Reason: ReasonTodayNotOpen, StaffOverridable: true, Label: "LOCKED (Today)"}
		}
		return Status{Reason: ReasonTodayOpen, Label: "OPEN (Today)"}
	case diff == 1:
		minutes := local.Hour()*60 + local.Minute()
		if minutes > p.CutoffMinutes {
			return Status{Locked: true, Reason: ReasonCutoffPassed, StaffOverridable: true, Label: "CLOSED (Cutoff " + p.cutoffLabel() + ")"}
		}
		return Status{Reason: ReasonOpenTomorrow, Label: "OPEN FOR TOMORROW"}
	case diff > p.HorizonDays:
		return Status{Locked: true, Reason: ReasonBeyondHorizon, Label: "OUT OF RANGE"}
	default:
		return Status{Reason: ReasonPreOrder, Label: "OPEN (Pre-order)"}
	}
}

// Writable combines a status with the staff override flag. The override only
// lifts locks the policy marks as staff-overridable.
func Writable(status Status, override bool) bool {
	if !status.Locked {
		return true
	}
	return override && status.StaffOverridable
}
