package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// PublishShiftsCmd creates the publishShifts command
func PublishShiftsCmd(app *AppContext) *cobra.Command {
	var operatorID, from, to string

	cmd := &cobra.Command{
		Use:   "publishShifts [shift_id...]",
		Short: "Publish draft shifts",
		Long: `Publish draft shifts by ID, or every draft of --operator between --from and --to.

Drafts were validated when they were created, so publishing does not validate again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			var err error

			switch {
			case len(args) > 0:
				app.Logger.Debug("publishShifts command", zap.Strings("ids", args))
				n, err = services.PublishShifts(app.Ctx, app.Database, app.Logger, args)
			case operatorID != "":
				start, perr := app.parseDate(from)
				if perr != nil {
					return perr
				}
				end, perr := app.parseDate(to)
				if perr != nil {
					return perr
				}
				app.Logger.Debug("publishShifts command",
					zap.String("operator_id", operatorID), zap.String("from", from), zap.String("to", to))
				n, err = services.PublishDrafts(app.Ctx, app.Database, app.Logger, operatorID, start, end.AddDate(0, 0, 1))
			default:
				return fmt.Errorf("give shift IDs or --operator with --from and --to")
			}
			if err != nil {
				return err
			}

			fmt.Printf("\n✅ Published %d shift(s)\n\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&operatorID, "operator", "", "Publish all drafts of this operator")
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD) with --operator")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD, inclusive) with --operator")

	return cmd
}
