package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type ShiftKind string

const (
	ShiftDay   ShiftKind = "Day"
	ShiftNight ShiftKind = "Night"
)

func (k ShiftKind) IsValid() bool {
	return k == ShiftDay || k == ShiftNight
}

// ParseShiftKind accepts "day"/"night" in any case
func ParseShiftKind(s string) (ShiftKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return ShiftDay, nil
	case "night":
		return ShiftNight, nil
	}
	return "", fmt.Errorf("unknown shift kind %q (expected Day or Night)", s)
}

// Shift is a single time-bounded assignment of one operator to a job.
// ID is empty for a candidate that has not been persisted yet.
type Shift struct {
	ID         string    `json:"id,omitempty"`
	OperatorID string    `json:"operatorId"`
	Title      string    `json:"title,omitempty"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Kind       ShiftKind `json:"shift"`
	Job        string    `json:"job"`
	Published  bool      `json:"published"`
}

// IsPersisted reports whether the shift has been saved and carries an ID
func (s Shift) IsPersisted() bool {
	return s.ID != ""
}

func (s Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether the shift intersects the half-open window [start, end).
// Shifts that merely touch (one ends exactly when the other starts) do not overlap.
func (s Shift) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// DefaultTitle returns the display title used when none is supplied, e.g. "Night Shift"
func (s Shift) DefaultTitle() string {
	return fmt.Sprintf("%s Shift", s.Kind)
}

// PolicyConfig holds the fatigue thresholds. Rest durations are in hours.
type PolicyConfig struct {
	MaxConsecutiveShifts      int `json:"maxConsecutiveShifts" yaml:"maxConsecutiveShifts" validate:"min=1"`
	MinRestAfterMaxShifts     int `json:"minRestAfterMaxShifts" yaml:"minRestAfterMaxShifts" validate:"min=0"`
	MaxConsecutiveNightShifts int `json:"maxConsecutiveNightShifts" yaml:"maxConsecutiveNightShifts" validate:"min=1"`
	MinRestAfterNightShifts   int `json:"minRestAfterNightShifts" yaml:"minRestAfterNightShifts" validate:"min=0"`
	MinRestAfter3Shifts       int `json:"minRestAfter3Shifts" yaml:"minRestAfter3Shifts" validate:"min=0"`
	ShiftLengthHours          int `json:"shiftLengthHours" yaml:"shiftLengthHours" validate:"min=1,max=24"`
	MaxHoursInDay             int `json:"maxHoursInDay" yaml:"maxHoursInDay" validate:"min=1,max=24"`
}

// ShiftLength returns the configured shift length, falling back to 12 hours
func (p PolicyConfig) ShiftLength() time.Duration {
	if p.ShiftLengthHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(p.ShiftLengthHours) * time.Hour
}

// Team names used by the rotating schedule
const (
	TeamProbationary = "Probationary"
	TeamReplacement  = "Replacement"
)

// Operator is a schedulable person. Jobs lists the positions the operator is trained for.
type Operator struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Letter     string   `json:"letter"`
	EmployeeID string   `json:"employeeId"`
	Phone      string   `json:"phone"`
	Team       string   `json:"team"`
	Jobs       []string `json:"jobs"`
}

func (o Operator) IsTrainedFor(job string) bool {
	return slices.Contains(o.Jobs, job)
}
