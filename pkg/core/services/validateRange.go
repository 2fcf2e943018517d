package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// ErrInvalidRequest is wrapped by errors about malformed requests, as opposed to rejections
// and storage failures
var ErrInvalidRequest = errors.New("invalid request")

// RangeRequest describes a run of shifts of one kind and job for an operator, one per
// calendar day from StartDate to EndDate inclusive
type RangeRequest struct {
	OperatorID string
	StartDate  time.Time
	EndDate    time.Time
	Kind       model.ShiftKind
	Job        string
	Title      string
}

// RangeDays returns the calendar days of the range (local midnight in loc). When
// recurrence is set, it is an RRULE that restricts which days get a shift.
func RangeDays(start, end time.Time, loc *time.Location, recurrence string) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := start.In(loc)
	e := end.In(loc)
	from := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	until := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, loc)
	if until.Before(from) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", ErrInvalidRequest, until.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	opt := &rrule.ROption{Freq: rrule.DAILY}
	if recurrence != "" {
		parsed, err := rrule.StrToROption(recurrence)
		if err != nil {
			return nil, fmt.Errorf("invalid range recurrence: %w", err)
		}
		opt = parsed
	}
	opt.Dtstart = from
	opt.Until = until
	opt.Count = 0

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build range recurrence: %w", err)
	}

	return rule.All(), nil
}

// rangeCandidates builds one unsaved candidate per day of the range
func rangeCandidates(cfg *config.Config, policy model.PolicyConfig, req RangeRequest) ([]model.Shift, error) {
	if req.OperatorID == "" {
		return nil, fmt.Errorf("%w: range request has no operator", ErrInvalidRequest)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: range request has unknown kind %q", ErrInvalidRequest, req.Kind)
	}

	days, err := RangeDays(req.StartDate, req.EndDate, cfg.Location(), cfg.RangeRecurrence)
	if err != nil {
		return nil, err
	}

	clock := cfg.ShiftClock()
	candidates := make([]model.Shift, 0, len(days))
	for _, day := range days {
		start, end := clock.ShiftTimes(day, req.Kind, policy.ShiftLength())
		s := model.Shift{
			OperatorID: req.OperatorID,
			Title:      req.Title,
			Start:      start,
			End:        end,
			Kind:       req.Kind,
			Job:        req.Job,
		}
		if s.Title == "" {
			s.Title = s.DefaultTitle()
		}
		candidates = append(candidates, s)
	}
	return candidates, nil
}

// ValidateRange validates a run of daily shifts without persisting them. Days are checked in
// chronological order and each accepted day joins the in-flight batch of the next, so
// streaks accumulate across the run. The first rejection ends the run; the returned
// verdicts stop at the rejected day.
func ValidateRange(
	ctx context.Context,
	store ValidationStore,
	cfg *config.Config,
	logger *zap.Logger,
	req RangeRequest,
) ([]*Verdict, error) {
	policy, err := LoadPolicy(ctx, store)
	if err != nil {
		return nil, err
	}

	candidates, err := rangeCandidates(cfg, *policy, req)
	if err != nil {
		return nil, err
	}

	logger.Debug("Validating shift range",
		zap.String("operator_id", req.OperatorID),
		zap.Int("days", len(candidates)))

	verdicts := make([]*Verdict, 0, len(candidates))
	inFlight := make([]model.Shift, 0, len(candidates))
	for _, candidate := range candidates {
		verdict, err := validateWithPolicy(ctx, store, cfg, logger, *policy, candidate, inFlight)
		if err != nil {
			return verdicts, err
		}
		verdicts = append(verdicts, verdict)
		if !verdict.Accepted() {
			logger.Info("Range validation stopped at rejected day",
				zap.Time("day", candidate.Start), zap.Int("accepted", len(inFlight)))
			break
		}
		inFlight = append(inFlight, candidate)
	}

	return verdicts, nil
}
