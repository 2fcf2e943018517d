package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
)

// PolicyCmd creates the policy command and its subcommands
func PolicyCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Show or change the fatigue policy",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current fatigue policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := services.GetPolicy(app.Ctx, app.Database)
			if err != nil {
				return err
			}
			printPolicy(*policy)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <policy.yaml>",
		Short: "Replace the fatigue policy with the thresholds in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read policy file: %w", err)
			}

			var policy model.PolicyConfig
			if err := yaml.Unmarshal(data, &policy); err != nil {
				return fmt.Errorf("failed to parse policy file: %w", err)
			}

			if err := services.SetPolicy(app.Ctx, app.Database, app.Logger, policy); err != nil {
				return err
			}

			fmt.Printf("\n✓ Fatigue policy updated\n")
			printPolicy(policy)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Store defaultPolicy from the config file if no policy has been set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seeded, err := services.SeedPolicy(app.Ctx, app.Database, app.Cfg, app.Logger)
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Println("\nA fatigue policy is already set; nothing changed.")
				fmt.Println()
				return nil
			}
			fmt.Printf("\n✓ Fatigue policy seeded from config\n")
			printPolicy(*app.Cfg.DefaultPolicy)
			return nil
		},
	})

	return cmd
}

func printPolicy(p model.PolicyConfig) {
	fmt.Println()
	fmt.Printf("Max consecutive shifts:        %d\n", p.MaxConsecutiveShifts)
	fmt.Printf("Rest after max shifts:         %dh\n", p.MinRestAfterMaxShifts)
	fmt.Printf("Max consecutive night shifts:  %d\n", p.MaxConsecutiveNightShifts)
	fmt.Printf("Rest after night shifts:       %dh\n", p.MinRestAfterNightShifts)
	fmt.Printf("Rest after 3 shifts:           %dh\n", p.MinRestAfter3Shifts)
	fmt.Printf("Shift length:                  %dh\n", p.ShiftLengthHours)
	fmt.Printf("Max hours in a day:            %dh\n", p.MaxHoursInDay)
	fmt.Println()
}
