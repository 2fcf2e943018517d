package fatigue

import (
	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// JobSet is a set of job labels that may only be held by one operator at a time
type JobSet map[string]struct{}

func NewJobSet(jobs ...string) JobSet {
	set := make(JobSet, len(jobs))
	for _, j := range jobs {
		set[j] = struct{}{}
	}
	return set
}

func (s JobSet) Contains(job string) bool {
	_, ok := s[job]
	return ok
}

// CheckTraining rejects an exclusive job for an operator who is not trained for it
func CheckTraining(candidate model.Shift, operator model.Operator, exclusive JobSet) *RejectionError {
	if !exclusive.Contains(candidate.Job) || operator.IsTrainedFor(candidate.Job) {
		return nil
	}
	return reject(RuleOperatorTraining, candidate.Start,
		"operator %s is not trained for job %s", operator.Name, candidate.Job)
}

// CheckJobConflict rejects the candidate when its job is exclusive and another operator
// already holds that job for an overlapping window. holders are shifts with the same job
// label, from any operator.
func CheckJobConflict(candidate model.Shift, holders []model.Shift, exclusive JobSet) *RejectionError {
	if !exclusive.Contains(candidate.Job) {
		return nil
	}

	for _, held := range holders {
		if held.Job != candidate.Job || held.OperatorID == candidate.OperatorID {
			continue
		}
		if candidate.IsPersisted() && held.ID == candidate.ID {
			continue
		}
		if !held.Overlaps(candidate.Start, candidate.End) {
			continue
		}

		rej := reject(RuleJobConflict, candidate.Start,
			"job already assigned: %s is held by operator %s from %s to %s",
			candidate.Job, held.OperatorID,
			held.Start.Format("2006-01-02 15:04"), held.End.Format("2006-01-02 15:04"))
		conflicting := held
		rej.Conflicting = &conflicting
		return rej
	}

	return nil
}

// CheckSelfOverlap rejects the candidate when the same operator already has any shift,
// of any job, overlapping it. A persisted candidate never conflicts with its own ID.
func CheckSelfOverlap(candidate model.Shift, existing []model.Shift) *RejectionError {
	for _, s := range existing {
		if s.OperatorID != candidate.OperatorID {
			continue
		}
		if candidate.IsPersisted() && s.ID == candidate.ID {
			continue
		}
		if !s.Overlaps(candidate.Start, candidate.End) {
			continue
		}

		rej := reject(RuleSelfOverlap, candidate.Start,
			"operator already has a %s shift (%s) from %s to %s",
			s.Kind, s.Job, s.Start.Format("2006-01-02 15:04"), s.End.Format("2006-01-02 15:04"))
		conflicting := s
		rej.Conflicting = &conflicting
		return rej
	}

	return nil
}
