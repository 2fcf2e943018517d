package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// GenerateTeamCmd creates the generateTeam command
func GenerateTeamCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generateTeam <week_of>",
		Short: "Generate draft shifts from the team rotation for the week containing week_of",
		Long: `Generate draft shifts for every operator on a rotating team (see teams in the config)
for the Monday-to-Sunday week containing week_of.

Each operator's week is validated like a range and stops at that operator's first rejection.
Probationary and replacement operators are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekOf, err := app.parseDate(args[0])
			if err != nil {
				return err
			}

			app.Logger.Debug("generateTeam command", zap.String("week_of", args[0]))

			result, err := services.GenerateTeamSchedule(app.Ctx, app.Database, app.Cfg, app.Logger, weekOf)
			if err != nil {
				return fmt.Errorf("failed to generate team schedule: %w", err)
			}

			fmt.Printf("\n📅 Week of %s\n\n", result.WeekStart.Format("Monday 2006-01-02"))

			rejected := 0
			for _, sched := range result.Schedules {
				fmt.Printf("%s (team %s): %d planned\n", sched.Operator.Name, sched.Operator.Team, len(sched.Planned))
				if sched.Result == nil {
					continue
				}
				for _, v := range sched.Result.Verdicts {
					printVerdict(v)
				}
				if sched.Result.Rejected() != nil {
					rejected++
				}
				fmt.Println()
			}

			if len(result.Skipped) > 0 {
				fmt.Printf("Skipped %d operator(s) outside the rotation:\n", len(result.Skipped))
				for _, op := range result.Skipped {
					team := op.Team
					if team == "" {
						team = "none"
					}
					fmt.Printf("  - %s (%s)\n", op.Name, team)
				}
				fmt.Println()
			}

			if rejected > 0 {
				fmt.Printf("⚠️  %d operator(s) stopped at a rejection.\n\n", rejected)
			} else {
				fmt.Println("✅ All planned shifts created as drafts.")
				fmt.Println()
			}
			return nil
		},
	}
}
