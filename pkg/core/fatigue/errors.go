package fatigue

import (
	"errors"
	"fmt"
	"time"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

var (
	// ErrRejected is wrapped by every rejection. Storage and configuration
	// failures never wrap it.
	ErrRejected = errors.New("shift rejected")

	// ErrConfigMissing is returned when no fatigue policy has been set
	ErrConfigMissing = errors.New("fatigue policy is not configured")

	ErrOperatorNotFound = errors.New("operator not found")

	ErrJobConflict        = fmt.Errorf("%w: job already assigned for this window", ErrRejected)
	ErrSelfOverlap        = fmt.Errorf("%w: operator already has a shift in this window", ErrRejected)
	ErrFatigueViolation   = fmt.Errorf("%w: fatigue policy violation", ErrRejected)
	ErrOperatorNotTrained = fmt.Errorf("%w: operator is not trained for job", ErrRejected)
	ErrInvalidShift       = fmt.Errorf("%w: invalid shift", ErrRejected)
)

// Rule identifies which check rejected a candidate
type Rule string

const (
	RuleMaxStreak        Rule = "max-streak"
	RuleNightStreakRest  Rule = "night-streak-rest"
	RuleThreeShiftRest   Rule = "3-shift-rest"
	RuleMaxStreakRest    Rule = "max-streak-rest"
	RuleJobConflict      Rule = "job-conflict"
	RuleSelfOverlap      Rule = "self-overlap"
	RuleOperatorTraining Rule = "operator-training"
	RuleInvalidShift     Rule = "invalid-shift"
)

// sentinel maps a rule to the error kind it belongs to
func (r Rule) sentinel() error {
	switch r {
	case RuleMaxStreak, RuleNightStreakRest, RuleThreeShiftRest, RuleMaxStreakRest:
		return ErrFatigueViolation
	case RuleJobConflict:
		return ErrJobConflict
	case RuleSelfOverlap:
		return ErrSelfOverlap
	case RuleOperatorTraining:
		return ErrOperatorNotTrained
	default:
		return ErrInvalidShift
	}
}

// IsFatigue reports whether the rule is one of the streak/rest rules
func (r Rule) IsFatigue() bool {
	return r.sentinel() == ErrFatigueViolation
}

// RejectionError explains why a candidate shift was rejected.
// Date is the start of the shift at which the rule fired.
type RejectionError struct {
	Rule   Rule
	Reason string
	Date   time.Time

	// Conflicting is the already-held shift for job-conflict and self-overlap rejections
	Conflicting *model.Shift
}

func (e *RejectionError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("%s: %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("%s on %s: %s", e.Rule, e.Date.Format("2006-01-02 15:04 MST"), e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Rule.sentinel()
}

func reject(rule Rule, at time.Time, format string, args ...any) *RejectionError {
	return &RejectionError{
		Rule:   rule,
		Reason: fmt.Sprintf(format, args...),
		Date:   at,
	}
}

// IsRejection reports whether err is a recoverable rejection rather than a
// configuration or storage failure
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

// AsRejection extracts the RejectionError from err, if any
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
