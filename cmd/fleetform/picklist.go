package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-fleetform/components/picklists"
)

func (a *app) newPicklistCmd() *cobra.Command {
	var search string
	var limit int
	cmd := &cobra.Command{
		Use:   "picklist <name>",
		Short: "Show the options of a picklist",
		Long: `Prints the keys and labels of a picklist, e.g. VehicleType, or of an
object collection with the object: prefix, e.g. object:departments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, provider, err := a.prepare()
			if err != nil {
				return err
			}
			o, err := a.orchestrator(ctx, cfg, provider)
			if err != nil {
				return err
			}
			defer o.Close()

			opts := picklists.NewOptions(picklists.WithDefaultLocale(cfg.Locales.Default))
			if limit <= 0 {
				limit = opts.MaxLimit
			}
			found := picklists.SearchOptions(o.Options().Get(ctx, args[0]), search, cfg.Locales.Default, limit, 1, opts)
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No options found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, option := range found {
				fmt.Fprintf(w, "%s\t%s\n", option.Value, option.Label)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter options by label")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of options")
	return cmd
}
