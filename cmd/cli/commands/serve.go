package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opscheduler/shiftcheck/pkg/api"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Migrate == nil {
				fmt.Println("\nThis store creates its schema when opened; nothing to migrate.")
				fmt.Println()
				return nil
			}

			applied, err := app.Migrate(app.Ctx)
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Println("\nDatabase is up to date.")
				fmt.Println()
				return nil
			}
			fmt.Printf("\n✓ Applied %d migration(s):\n", len(applied))
			for _, name := range applied {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Println()
			return nil
		},
	}
}

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shift API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Cfg.ListenAddr
			}
			return api.ListenAndServe(addr, api.NewHandler(app.Database, app.Cfg, app.Logger))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to listenAddr from the config)")

	return cmd
}
