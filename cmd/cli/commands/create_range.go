package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// CreateRangeCmd creates the createRange command
func CreateRangeCmd(app *AppContext) *cobra.Command {
	var kindFlag, job, title string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "createRange <operator_id> <start_date> <end_date>",
		Short: "Create one shift per day from start_date to end_date, stopping at the first rejection",
		Long: `Create one draft shift per calendar day from start_date to end_date (inclusive).

Days are validated in order and each accepted day counts toward the streaks of the next.
The run stops at the first rejected day. With atomicRanges set in the config, a rejection
rolls back the whole run; otherwise earlier days stay saved.

Use --dry-run to validate the range without saving anything.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseShiftKind(kindFlag)
			if err != nil {
				return err
			}
			start, err := app.parseDate(args[1])
			if err != nil {
				return err
			}
			end, err := app.parseDate(args[2])
			if err != nil {
				return err
			}

			req := services.RangeRequest{
				OperatorID: args[0],
				StartDate:  start,
				EndDate:    end,
				Kind:       kind,
				Job:        job,
				Title:      title,
			}

			app.Logger.Debug("createRange command",
				zap.String("operator_id", req.OperatorID),
				zap.String("start", args[1]),
				zap.String("end", args[2]),
				zap.Bool("dry_run", dryRun))

			fmt.Println()
			if dryRun {
				verdicts, err := services.ValidateRange(app.Ctx, app.Database, app.Cfg, app.Logger, req)
				if err != nil {
					return err
				}
				for _, v := range verdicts {
					printVerdict(v)
				}
				fmt.Println()
				if len(verdicts) > 0 {
					if last := verdicts[len(verdicts)-1]; !last.Accepted() {
						return last.Err()
					}
				}
				fmt.Printf("✅ All %d day(s) would be accepted (dry run, nothing saved).\n\n", len(verdicts))
				return nil
			}

			result, err := services.CreateShiftRange(app.Ctx, app.Database, app.Cfg, app.Logger, req)
			if err != nil {
				return fmt.Errorf("failed to create range: %w", err)
			}
			printRangeResult(result)
			fmt.Println()
			if rejected := result.Rejected(); rejected != nil {
				return rejected.Err()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "shift", "day", "Shift kind (day or night)")
	cmd.Flags().StringVar(&job, "job", "", "Job position")
	cmd.Flags().StringVar(&title, "title", "", "Display title (defaults to \"<Kind> Shift\")")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without saving")
	cmd.MarkFlagRequired("job")

	return cmd
}
