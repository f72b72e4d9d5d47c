package commands

import (
	"fmt"

	"github.com/JonMunkholm/userdata/internal/core"
	"github.com/JonMunkholm/userdata/internal/input"
	"github.com/JonMunkholm/userdata/internal/intake"
	"github.com/JonMunkholm/userdata/internal/logging"
	"github.com/JonMunkholm/userdata/internal/metrics"
	"github.com/spf13/cobra"
)

func (a *app) addCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Prompt for a user record, validate it and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.add(file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read fields from a KEY=value file instead of prompting")
	return cmd
}

// add collects one record, validates it, then opens the database and saves it.
// Nothing is dialed until the record has passed validation.
func (a *app) add(file string) error {
	src, err := a.source(file)
	if err != nil {
		return err
	}

	raw, err := input.Collect(src)
	if err != nil {
		return err
	}

	user, err := core.Validate(raw)
	if err != nil {
		return err
	}

	p, err := a.openDatabase(a.ctx)
	if err != nil {
		return err
	}
	defer a.closeDatabase(p)

	svc := intake.NewService(p,
		intake.NewLimiter(intake.DefaultCapacity, a.cfg.Intake.MaxWaitTime),
		metrics.New(a.registry),
		intake.WithInsertTimeout(a.cfg.Intake.InsertTimeout),
	)
	receipt, err := svc.Save(a.ctx, user)
	if err != nil {
		return err
	}

	logging.FromContext(a.ctx).Debug("record stored", "id", receipt.ID)
	fmt.Fprintln(a.stdout, "User data saved successfully!")
	return nil
}

func (a *app) source(file string) (input.Source, error) {
	if file != "" {
		return input.ReadFile(file)
	}
	return input.NewTerminal(a.stdin, a.stdout), nil
}
