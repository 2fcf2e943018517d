package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// VacationJob is the job label of the time-off portion of a split shift
const VacationJob = "Vacation"

// SplitPart says which end of the shift slot a partial assignment covers
type SplitPart string

const (
	PartFirst SplitPart = "first"
	PartLast  SplitPart = "last"
)

// ExtraType labels a partial shift worked on top of the rotation
type ExtraType string

const (
	ExtraMandate  ExtraType = "Mandate"
	ExtraOvertime ExtraType = "Overtime"
)

// SplitRequest takes part of an operator's shift slot off and assigns the rest to a job
type SplitRequest struct {
	OperatorID string
	Date       time.Time
	Kind       model.ShiftKind
	// HoursOff is 4, 8, or the full shift length
	HoursOff     int
	Part         SplitPart
	RemainingJob string
}

// PartialRequest is a mandate or overtime assignment covering part or all of a shift slot
type PartialRequest struct {
	OperatorID string
	Date       time.Time
	Kind       model.ShiftKind
	Hours      int
	Part       SplitPart
	Type       ExtraType
	Job        string
}

func checkPartialHours(hours int, length time.Duration) error {
	full := int(length / time.Hour)
	if hours != 4 && hours != 8 && hours != full {
		return fmt.Errorf("%w: partial shifts must be 4, 8 or %d hours, got %d", ErrInvalidRequest, full, hours)
	}
	return nil
}

func slotPortion(start, end time.Time, hours int, part SplitPart) (time.Time, time.Time, error) {
	d := time.Duration(hours) * time.Hour
	switch part {
	case PartFirst:
		return start, start.Add(d), nil
	case PartLast:
		return end.Add(-d), end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown shift part %q", ErrInvalidRequest, part)
	}
}

// SplitShift builds the shifts covering a slot with time off: the vacation portion and, unless
// the whole slot is off, the remaining job portion. Shifts are returned in chronological order.
func SplitShift(clock model.ShiftClock, length time.Duration, req SplitRequest) ([]model.Shift, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown shift kind %q", ErrInvalidRequest, req.Kind)
	}
	if err := checkPartialHours(req.HoursOff, length); err != nil {
		return nil, err
	}

	start, end := clock.ShiftTimes(req.Date, req.Kind, length)
	vacation := model.Shift{
		OperatorID: req.OperatorID,
		Title:      VacationJob,
		Kind:       req.Kind,
		Job:        VacationJob,
	}

	if time.Duration(req.HoursOff)*time.Hour == length {
		vacation.Start, vacation.End = start, end
		return []model.Shift{vacation}, nil
	}
	if req.RemainingJob == "" {
		return nil, fmt.Errorf("%w: a partial vacation needs a job for the remaining hours", ErrInvalidRequest)
	}

	offStart, offEnd, err := slotPortion(start, end, req.HoursOff, req.Part)
	if err != nil {
		return nil, err
	}
	vacation.Start, vacation.End = offStart, offEnd

	work := model.Shift{
		OperatorID: req.OperatorID,
		Title:      fmt.Sprintf("%ss | %s", req.Kind, req.RemainingJob),
		Kind:       req.Kind,
		Job:        req.RemainingJob,
	}
	if req.Part == PartFirst {
		work.Start, work.End = offEnd, end
		return []model.Shift{vacation, work}, nil
	}
	work.Start, work.End = start, offStart
	return []model.Shift{work, vacation}, nil
}

// PartialShift builds a mandate or overtime shift. The worked position is the job, so it is
// held exclusively like any other assignment; the extra type is shown in the title.
func PartialShift(clock model.ShiftClock, length time.Duration, req PartialRequest) (model.Shift, error) {
	if !req.Kind.IsValid() {
		return model.Shift{}, fmt.Errorf("%w: unknown shift kind %q", ErrInvalidRequest, req.Kind)
	}
	if req.Type != ExtraMandate && req.Type != ExtraOvertime {
		return model.Shift{}, fmt.Errorf("%w: unknown extra shift type %q", ErrInvalidRequest, req.Type)
	}
	if req.Job == "" {
		return model.Shift{}, fmt.Errorf("%w: a %s shift needs the position worked", ErrInvalidRequest, req.Type)
	}
	if err := checkPartialHours(req.Hours, length); err != nil {
		return model.Shift{}, err
	}

	start, end := clock.ShiftTimes(req.Date, req.Kind, length)
	if time.Duration(req.Hours)*time.Hour != length {
		var err error
		start, end, err = slotPortion(start, end, req.Hours, req.Part)
		if err != nil {
			return model.Shift{}, err
		}
	}

	return model.Shift{
		OperatorID: req.OperatorID,
		Title:      fmt.Sprintf("%s | %s Shift | %s", req.Type, req.Kind, req.Job),
		Start:      start,
		End:        end,
		Kind:       req.Kind,
		Job:        req.Job,
	}, nil
}

// CreateSplitShift validates and persists the portions of a split slot as drafts. The
// second portion is validated with the first in flight.
func CreateSplitShift(
	ctx context.Context,
	database db.Database,
	cfg *config.Config,
	logger *zap.Logger,
	req SplitRequest,
) (*RangeResult, error) {
	policy, err := LoadPolicy(ctx, database)
	if err != nil {
		return nil, err
	}

	shifts, err := SplitShift(cfg.ShiftClock(), policy.ShiftLength(), req)
	if err != nil {
		return nil, err
	}

	logger.Debug("Creating split shift",
		zap.String("operator_id", req.OperatorID),
		zap.Int("hours_off", req.HoursOff),
		zap.String("part", string(req.Part)))

	return persistRun(ctx, database, cfg, logger, *policy, req.OperatorID, shifts)
}

// CreatePartialShift validates and persists a mandate or overtime shift as a draft
func CreatePartialShift(
	ctx context.Context,
	database db.Database,
	cfg *config.Config,
	logger *zap.Logger,
	req PartialRequest,
) (*Verdict, error) {
	policy, err := LoadPolicy(ctx, database)
	if err != nil {
		return nil, err
	}

	shift, err := PartialShift(cfg.ShiftClock(), policy.ShiftLength(), req)
	if err != nil {
		return nil, err
	}

	return CreateShift(ctx, database, cfg, logger, shift)
}
