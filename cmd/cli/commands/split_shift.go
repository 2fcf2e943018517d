package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// SplitShiftCmd creates the splitShift command
func SplitShiftCmd(app *AppContext) *cobra.Command {
	var kindFlag, part, job string
	var hoursOff int

	cmd := &cobra.Command{
		Use:   "splitShift <operator_id> <date>",
		Short: "Take part of a shift slot as vacation and assign the remaining hours to a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseShiftKind(kindFlag)
			if err != nil {
				return err
			}
			date, err := app.parseDate(args[1])
			if err != nil {
				return err
			}

			result, err := services.CreateSplitShift(app.Ctx, app.Database, app.Cfg, app.Logger, services.SplitRequest{
				OperatorID:   args[0],
				Date:         date,
				Kind:         kind,
				HoursOff:     hoursOff,
				Part:         services.SplitPart(part),
				RemainingJob: job,
			})
			if err != nil {
				return fmt.Errorf("failed to split shift: %w", err)
			}

			fmt.Println()
			printRangeResult(result)
			fmt.Println()
			if rejected := result.Rejected(); rejected != nil {
				return rejected.Err()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "shift", "day", "Shift kind (day or night)")
	cmd.Flags().IntVar(&hoursOff, "hours-off", 4, "Hours off: 4, 8 or the full shift")
	cmd.Flags().StringVar(&part, "part", string(services.PartFirst), "Which end of the slot is taken off (first or last)")
	cmd.Flags().StringVar(&job, "job", "", "Job for the remaining hours")

	return cmd
}

// PartialShiftCmd creates the partialShift command
func PartialShiftCmd(app *AppContext) *cobra.Command {
	var kindFlag, part, extra, job string
	var hours int

	cmd := &cobra.Command{
		Use:   "partialShift <operator_id> <date>",
		Short: "Create a mandate or overtime shift covering part or all of a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseShiftKind(kindFlag)
			if err != nil {
				return err
			}
			date, err := app.parseDate(args[1])
			if err != nil {
				return err
			}

			verdict, err := services.CreatePartialShift(app.Ctx, app.Database, app.Cfg, app.Logger, services.PartialRequest{
				OperatorID: args[0],
				Date:       date,
				Kind:       kind,
				Hours:      hours,
				Part:       services.SplitPart(part),
				Type:       services.ExtraType(extra),
				Job:        job,
			})
			if err != nil {
				return fmt.Errorf("failed to create partial shift: %w", err)
			}

			fmt.Println()
			printVerdict(verdict)
			fmt.Println()
			return verdict.Err()
		},
	}

	cmd.Flags().StringVar(&kindFlag, "shift", "day", "Shift kind (day or night)")
	cmd.Flags().IntVar(&hours, "hours", 4, "Hours worked: 4, 8 or the full shift")
	cmd.Flags().StringVar(&part, "part", string(services.PartFirst), "Which end of the slot is worked (first or last)")
	cmd.Flags().StringVar(&extra, "type", string(services.ExtraOvertime), "Mandate or Overtime")
	cmd.Flags().StringVar(&job, "job", "", "Position worked")
	cmd.MarkFlagRequired("job")

	return cmd
}
