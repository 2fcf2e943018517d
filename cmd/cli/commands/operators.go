package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// operatorFile is the YAML layout read by importOperators
type operatorFile struct {
	Operators []struct {
		ID         string   `yaml:"id"`
		Name       string   `yaml:"name"`
		Letter     string   `yaml:"letter"`
		EmployeeID string   `yaml:"employeeId"`
		Phone      string   `yaml:"phone"`
		Team       string   `yaml:"team"`
		Jobs       []string `yaml:"jobs"`
	} `yaml:"operators"`
}

// ListOperatorsCmd creates the listOperators command
func ListOperatorsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listOperators",
		Short: "List all operators with their team and trained jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			operators, err := app.Database.ListOperators(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to list operators: %w", err)
			}

			app.Logger.Info("Operators fetched successfully", zap.Int("count", len(operators)))

			fmt.Printf("\nFound %d operators:\n\n", len(operators))
			for _, op := range operators {
				team := op.Team
				if team == "" {
					team = "none"
				}
				fmt.Printf("- %s (%s) - team %s - %s\n", op.Name, op.ID, team, strings.Join(op.Jobs, ", "))
			}
			fmt.Println()

			return nil
		},
	}
}

// ImportOperatorsCmd creates the importOperators command
func ImportOperatorsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importOperators <operators.yaml>",
		Short: "Create or replace operators from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read operators file: %w", err)
			}

			var file operatorFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse operators file: %w", err)
			}

			for i, o := range file.Operators {
				if o.ID == "" || o.Name == "" {
					return fmt.Errorf("operator %d: id and name are required", i+1)
				}
				op := &model.Operator{
					ID:         o.ID,
					Name:       o.Name,
					Letter:     o.Letter,
					EmployeeID: o.EmployeeID,
					Phone:      o.Phone,
					Team:       o.Team,
					Jobs:       o.Jobs,
				}
				if err := app.Database.UpsertOperator(app.Ctx, op); err != nil {
					return fmt.Errorf("failed to save operator %s: %w", o.ID, err)
				}
				app.Logger.Debug("Operator saved", zap.String("operator_id", o.ID))
			}

			fmt.Printf("\n✓ Imported %d operator(s)\n\n", len(file.Operators))
			return nil
		},
	}
}
