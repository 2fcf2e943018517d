package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// shiftFlags are the flags shared by the commands that take a single shift
type shiftFlags struct {
	operator string
	date     string
	kind     string
	job      string
	title    string
	start    string
	end      string
}

func (f *shiftFlags) register(cmd *cobra.Command) {
	f.bind(cmd.Flags())
	cmd.MarkFlagRequired("operator")
	cmd.MarkFlagRequired("job")
}

func (f *shiftFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.operator, "operator", "", "Operator ID")
	fs.StringVar(&f.date, "date", "", "Shift date (YYYY-MM-DD)")
	fs.StringVar(&f.kind, "shift", "day", "Shift kind (day or night)")
	fs.StringVar(&f.job, "job", "", "Job position")
	fs.StringVar(&f.title, "title", "", "Display title (defaults to \"<Kind> Shift\")")
	fs.StringVar(&f.start, "start", "", "Explicit start time (RFC 3339), overrides --date")
	fs.StringVar(&f.end, "end", "", "Explicit end time (RFC 3339), required with --start")
}

// build turns the flags into a candidate. Without --start the shift covers the standard slot
// of its kind on --date.
func (f *shiftFlags) build(app *AppContext) (model.Shift, error) {
	kind, err := model.ParseShiftKind(f.kind)
	if err != nil {
		return model.Shift{}, err
	}

	shift := model.Shift{
		OperatorID: f.operator,
		Title:      f.title,
		Kind:       kind,
		Job:        f.job,
	}

	if f.start != "" {
		if shift.Start, err = time.Parse(time.RFC3339, f.start); err != nil {
			return model.Shift{}, fmt.Errorf("invalid --start: %w", err)
		}
		if shift.End, err = time.Parse(time.RFC3339, f.end); err != nil {
			return model.Shift{}, fmt.Errorf("invalid --end: %w", err)
		}
		return shift, nil
	}

	if f.date == "" {
		return model.Shift{}, fmt.Errorf("either --date or --start/--end is required")
	}
	date, err := app.parseDate(f.date)
	if err != nil {
		return model.Shift{}, err
	}
	policy, err := services.GetPolicy(app.Ctx, app.Database)
	if err != nil {
		return model.Shift{}, err
	}
	shift.Start, shift.End = app.Cfg.ShiftClock().ShiftTimes(date, kind, policy.ShiftLength())
	return shift, nil
}

// ValidateShiftCmd creates the validateShift command
func ValidateShiftCmd(app *AppContext) *cobra.Command {
	var flags shiftFlags
	cmd := &cobra.Command{
		Use:   "validateShift",
		Short: "Check a shift against the operator's schedule and the fatigue policy without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := flags.build(app)
			if err != nil {
				return err
			}

			app.Logger.Debug("validateShift command", zap.String("operator_id", candidate.OperatorID))

			verdict, err := services.ValidateCandidate(app.Ctx, app.Database, app.Cfg, app.Logger, candidate, nil)
			if err != nil {
				return err
			}

			fmt.Println()
			printVerdict(verdict)
			fmt.Println()
			return verdict.Err()
		},
	}
	flags.register(cmd)
	return cmd
}

// CreateShiftCmd creates the createShift command
func CreateShiftCmd(app *AppContext) *cobra.Command {
	var flags shiftFlags
	cmd := &cobra.Command{
		Use:   "createShift",
		Short: "Validate a shift and save it as a draft when accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := flags.build(app)
			if err != nil {
				return err
			}

			verdict, err := services.CreateShift(app.Ctx, app.Database, app.Cfg, app.Logger, candidate)
			if err != nil {
				return fmt.Errorf("failed to create shift: %w", err)
			}

			fmt.Println()
			printVerdict(verdict)
			fmt.Println()
			return verdict.Err()
		},
	}
	flags.register(cmd)
	return cmd
}

// UpdateShiftCmd creates the updateShift command
func UpdateShiftCmd(app *AppContext) *cobra.Command {
	var flags shiftFlags
	cmd := &cobra.Command{
		Use:   "updateShift <shift_id>",
		Short: "Re-validate an edited shift and save it when accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edited, err := flags.build(app)
			if err != nil {
				return err
			}
			edited.ID = args[0]

			verdict, err := services.UpdateShift(app.Ctx, app.Database, app.Cfg, app.Logger, edited)
			if err != nil {
				return fmt.Errorf("failed to update shift: %w", err)
			}

			fmt.Println()
			printVerdict(verdict)
			fmt.Println()
			return verdict.Err()
		},
	}
	flags.register(cmd)
	return cmd
}

// DeleteShiftCmd creates the deleteShift command
func DeleteShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteShift <shift_id>",
		Short: "Delete a shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Database.DeleteShift(app.Ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete shift: %w", err)
			}
			app.Logger.Info("Shift deleted", zap.String("shift_id", args[0]))
			fmt.Printf("\n✓ Shift %s deleted\n\n", args[0])
			return nil
		},
	}
}
