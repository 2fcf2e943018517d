package api

import (
	"time"

	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// =============================================================================
// REQUESTS
// =============================================================================

// ShiftRequest is the body of POST /api/events, POST /api/events/validate and
// PUT /api/events/{id}
type ShiftRequest struct {
	OperatorID string    `json:"operatorId" validate:"required"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtfield=Start"`
	Shift      string    `json:"shift" validate:"required,oneof=Day Night"`
	Job        string    `json:"job" validate:"required"`
}

func (r ShiftRequest) toShift() model.Shift {
	return model.Shift{
		OperatorID: r.OperatorID,
		Title:      r.Title,
		Start:      r.Start,
		End:        r.End,
		Kind:       model.ShiftKind(r.Shift),
		Job:        r.Job,
	}
}

// RangeRequest is the body of POST /api/events/range. Dates are YYYY-MM-DD, inclusive.
type RangeRequest struct {
	OperatorID string `json:"operatorId" validate:"required"`
	StartDate  string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Shift      string `json:"shift" validate:"required,oneof=Day Night"`
	Job        string `json:"job" validate:"required"`
	Title      string `json:"title"`
}

// PublishRequest is the body of POST /api/events/publish
type PublishRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// SplitRequest is the body of POST /api/events/split
type SplitRequest struct {
	OperatorID   string `json:"operatorId" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Shift        string `json:"shift" validate:"required,oneof=Day Night"`
	HoursOff     int    `json:"hoursOff" validate:"required,min=1"`
	Part         string `json:"part" validate:"required,oneof=first last"`
	RemainingJob string `json:"remainingJob" validate:"required"`
}

// PartialRequest is the body of POST /api/events/partial
type PartialRequest struct {
	OperatorID string `json:"operatorId" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Shift      string `json:"shift" validate:"required,oneof=Day Night"`
	Hours      int    `json:"hours" validate:"required,min=1"`
	Part       string `json:"part" validate:"required,oneof=first last"`
	Type       string `json:"type" validate:"required,oneof=Mandate Overtime"`
	Job        string `json:"job" validate:"required"`
}

// GenerateRequest is the body of POST /api/schedule/generate
type GenerateRequest struct {
	WeekOf string `json:"weekOf" validate:"required,datetime=2006-01-02"`
}

// OperatorRequest is the body of PUT /api/operators/{id}
type OperatorRequest struct {
	Name       string   `json:"name" validate:"required"`
	Letter     string   `json:"letter"`
	EmployeeID string   `json:"employeeId"`
	Phone      string   `json:"phone"`
	Team       string   `json:"team"`
	Jobs       []string `json:"jobs" validate:"dive,required"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// RejectionDTO explains a rejected shift
type RejectionDTO struct {
	Rule   string    `json:"rule"`
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
	// ConflictingShiftID is set for job-conflict and self-overlap rejections
	ConflictingShiftID string `json:"conflictingShiftId,omitempty"`
}

// VerdictDTO is the outcome of validating one shift
type VerdictDTO struct {
	Accepted  bool          `json:"accepted"`
	Stage     string        `json:"stage"`
	Shift     model.Shift   `json:"event"`
	Rejection *RejectionDTO `json:"rejection,omitempty"`
}

// RangeResultDTO is the outcome of a multi-shift creation
type RangeResultDTO struct {
	Accepted bool          `json:"accepted"`
	Verdicts []VerdictDTO  `json:"verdicts"`
	Created  []model.Shift `json:"created"`
}

// OperatorScheduleDTO is one operator's generated week
type OperatorScheduleDTO struct {
	OperatorID string         `json:"operatorId"`
	Name       string         `json:"name"`
	Team       string         `json:"team"`
	Result     RangeResultDTO `json:"result"`
}

// TeamScheduleDTO is the outcome of POST /api/schedule/generate
type TeamScheduleDTO struct {
	WeekStart time.Time             `json:"weekStart"`
	Schedules []OperatorScheduleDTO `json:"schedules"`
	Skipped   []string              `json:"skipped"`
}

// PublishResponse reports how many drafts were published
type PublishResponse struct {
	Published int `json:"published"`
}

// ErrorResponse is returned for every non-2xx response that is not a rejection
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRejectionDTO(rej *fatigue.RejectionError) *RejectionDTO {
	if rej == nil {
		return nil
	}
	dto := &RejectionDTO{
		Rule:   string(rej.Rule),
		Reason: rej.Reason,
		Date:   rej.Date,
	}
	if rej.Conflicting != nil {
		dto.ConflictingShiftID = rej.Conflicting.ID
	}
	return dto
}

func toVerdictDTO(v *services.Verdict) VerdictDTO {
	return VerdictDTO{
		Accepted:  v.Accepted(),
		Stage:     string(v.Stage),
		Shift:     v.Candidate,
		Rejection: toRejectionDTO(v.Rejection),
	}
}

func toRangeResultDTO(r *services.RangeResult) RangeResultDTO {
	dto := RangeResultDTO{
		Accepted: r.Rejected() == nil,
		Verdicts: make([]VerdictDTO, len(r.Verdicts)),
		Created:  r.Created,
	}
	for i, v := range r.Verdicts {
		dto.Verdicts[i] = toVerdictDTO(v)
	}
	if dto.Created == nil {
		dto.Created = []model.Shift{}
	}
	return dto
}

func toTeamScheduleDTO(r *services.TeamScheduleResult) TeamScheduleDTO {
	dto := TeamScheduleDTO{
		WeekStart: r.WeekStart,
		Schedules: make([]OperatorScheduleDTO, 0, len(r.Schedules)),
		Skipped:   make([]string, 0, len(r.Skipped)),
	}
	for _, s := range r.Schedules {
		result := RangeResultDTO{Accepted: true, Verdicts: []VerdictDTO{}, Created: []model.Shift{}}
		if s.Result != nil {
			result = toRangeResultDTO(s.Result)
		}
		dto.Schedules = append(dto.Schedules, OperatorScheduleDTO{
			OperatorID: s.Operator.ID,
			Name:       s.Operator.Name,
			Team:       s.Operator.Team,
			Result:     result,
		})
	}
	for _, o := range r.Skipped {
		dto.Skipped = append(dto.Skipped, o.ID)
	}
	return dto
}
