package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) provisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the database and users table if they are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openDatabase(a.ctx)
			if err != nil {
				return err
			}
			a.closeDatabase(p)

			fmt.Fprintf(a.stdout, "Database %q is ready.\n", a.cfg.Database.Name)
			return nil
		},
	}
}
