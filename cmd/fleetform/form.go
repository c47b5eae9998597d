package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/orchestrator"
	"github.com/goliatone/go-fleetform/pkg/renderers/tui"
)

func (a *app) newFormCmd(name, short string) *cobra.Command {
	var editID int64
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Long: fmt.Sprintf(`Walks through the %s form step by step. Each step is validated
before moving on; the last step shows a review before submitting.

Pass --edit with a record id to load and update an existing %s.`, name, name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, provider, err := a.prepare()
			if err != nil {
				return err
			}
			logger := logging.ModuleLogger(provider, "cli")

			runner, err := tui.New(
				tui.WithPromptDriver(a.env.driver),
				tui.WithOutput(a.env.out),
				tui.WithLocale(cfg.Locales.Default),
				tui.WithLogger(logging.ModuleLogger(provider, "tui")),
			)
			if err != nil {
				return err
			}

			o, err := a.orchestrator(ctx, cfg, provider, orchestrator.WithNotifier(runner.Notifier()))
			if err != nil {
				return err
			}
			defer func() {
				if err := o.Close(); err != nil {
					logger.Warn("close failed", "error", err)
				}
			}()

			host := model.Host{Locale: cfg.Locales.Default, BaseURL: cfg.BaseURL, RecordID: editID}
			if user, err := o.Client().CurrentUser(ctx); err != nil {
				logger.Warn("current user unavailable", "error", err)
			} else {
				host.User = user
			}

			session, err := o.Session(ctx, name, host)
			if err != nil {
				return err
			}
			defer session.Close()

			result, err := runner.Run(ctx, session)
			if err != nil {
				return err
			}
			verb := "Updated"
			if result.Created {
				verb = "Created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s #%d\n", verb, name, result.Entry.ID())
			return nil
		},
	}
	cmd.Flags().Int64Var(&editID, "edit", 0, "id of an existing record to edit")
	return cmd
}
