package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// ViewScheduleCmd creates the viewSchedule command
func ViewScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewSchedule <operator_id> <from> <to>",
		Short: "View an operator's shifts with the running streak counters",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := app.parseDate(args[1])
			if err != nil {
				return err
			}
			to, err := app.parseDate(args[2])
			if err != nil {
				return err
			}

			app.Logger.Debug("viewSchedule command",
				zap.String("operator_id", args[0]), zap.String("from", args[1]), zap.String("to", args[2]))

			view, err := services.ViewSchedule(app.Ctx, app.Database, app.Logger, args[0], from, to.AddDate(0, 0, 1))
			if err != nil {
				return err
			}

			// ANSI color codes
			const (
				colorReset  = "\033[0m"
				colorGreen  = "\033[32m"
				colorRed    = "\033[31m"
				colorYellow = "\033[33m"
				colorDim    = "\033[2m"
			)

			fmt.Printf("\n%s (team %s): %s to %s\n\n", view.Operator.Name, view.Operator.Team, args[1], args[2])

			if len(view.Shifts) == 0 {
				fmt.Println("No shifts in this range.")
				fmt.Println()
				return nil
			}

			fmt.Printf("%-16s  %-5s  %-13s  %-20s  %-8s  %-8s  %s\n", "Date", "Kind", "Hours", "Job", "Streak", "Nights", "Status")
			fmt.Println(strings.Repeat("-", 90))

			var violation *fatigue.RejectionError
			for _, s := range view.Shifts {
				status := "Draft"
				if s.Shift.Published {
					status = "Published"
				}
				fmt.Printf("%-16s  %-5s  %-13s  %-20s  ",
					s.Shift.Start.Format("Mon 2006-01-02"),
					s.Shift.Kind,
					s.Shift.Start.Format("15:04")+"-"+s.Shift.End.Format("15:04"),
					s.Shift.Job)

				if !s.Analysed {
					fmt.Printf("%s%-8s  %-8s%s  %s\n", colorDim, "-", "-", colorReset, status)
					continue
				}

				color := streakColor(s.Streak, view.Policy, colorGreen, colorYellow, colorRed)
				if s.Violation != nil {
					color = colorRed
					violation = s.Violation
				}
				fmt.Printf("%s%-8s  %-8s%s  %s\n", color,
					fmt.Sprintf("%d/%d", s.Streak.ConsecutiveShifts, view.Policy.MaxConsecutiveShifts),
					fmt.Sprintf("%d/%d", s.Streak.ConsecutiveNightShifts, view.Policy.MaxConsecutiveNightShifts),
					colorReset, status)
			}

			if violation != nil {
				fmt.Printf("\n%s⚠️  %s%s\n", colorRed, violation.Error(), colorReset)
			}

			// Legend
			fmt.Println()
			fmt.Println("Legend:")
			fmt.Printf("  %sX/Y%s = X consecutive of at most Y\n", colorGreen, colorReset)
			fmt.Printf("  %sX/Y%s = one shift below a limit\n", colorYellow, colorReset)
			fmt.Printf("  %sX/Y%s = at a limit, or the policy is broken\n", colorRed, colorReset)
			fmt.Println()

			return nil
		},
	}

	return cmd
}

// streakColor picks the colour of a shift's counters: red at either limit, yellow one
// shift below either limit, green otherwise
func streakColor(state fatigue.StreakState, policy model.PolicyConfig, green, yellow, red string) string {
	shiftsLeft := policy.MaxConsecutiveShifts - state.ConsecutiveShifts
	nightsLeft := policy.MaxConsecutiveNightShifts - state.ConsecutiveNightShifts
	if state.ConsecutiveNightShifts == 0 {
		nightsLeft = policy.MaxConsecutiveNightShifts
	}

	left := min(shiftsLeft, nightsLeft)
	switch {
	case left <= 0:
		return red
	case left == 1:
		return yellow
	default:
		return green
	}
}
