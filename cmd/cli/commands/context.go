package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context

	// Migrate applies pending schema migrations; nil when the store migrates itself on open
	Migrate func(ctx context.Context) ([]string, error)
}

// parseDate parses a YYYY-MM-DD argument as local midnight in the configured timezone
func (app *AppContext) parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, app.Cfg.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

func formatShift(s model.Shift) string {
	return fmt.Sprintf("%s  %-5s  %-16s %s → %s",
		s.Start.Format("Mon 2006-01-02"), s.Kind, s.Job,
		s.Start.Format("15:04"), s.End.Format("15:04"))
}

// printVerdict displays the outcome of validating one shift
func printVerdict(v *services.Verdict) {
	if v.Accepted() {
		fmt.Printf("  ✓ %s", formatShift(v.Candidate))
		if v.Candidate.ID != "" {
			fmt.Printf("  [%s]", v.Candidate.ID)
		}
		fmt.Println()
		return
	}

	fmt.Printf("  ✗ %s\n", formatShift(v.Candidate))
	if v.Rejection != nil {
		fmt.Printf("      %s: %s\n", v.Rejection.Rule, v.Rejection.Reason)
		if v.Rejection.Conflicting != nil {
			fmt.Printf("      conflicts with %s\n", formatShift(*v.Rejection.Conflicting))
		}
	}
}

// printRangeResult displays every verdict of a run and a summary line
func printRangeResult(r *services.RangeResult) {
	for _, v := range r.Verdicts {
		printVerdict(v)
	}
	fmt.Println()

	if rejected := r.Rejected(); rejected != nil {
		fmt.Printf("⚠️  Stopped at %s: %d shift(s) created before the rejection.\n",
			rejected.Candidate.Start.Format("2006-01-02"), len(r.Created))
		return
	}
	fmt.Printf("✅ %d shift(s) created as drafts.\n", len(r.Created))
}
