package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-fleetform/pkg/forms/driver"
	"github.com/goliatone/go-fleetform/pkg/forms/vehicle"
	"github.com/goliatone/go-fleetform/pkg/listquery"
	"github.com/goliatone/go-fleetform/pkg/render"
)

var listTargets = map[string]string{
	"vehicles": vehicle.Name,
	"vehicle":  vehicle.Name,
	"drivers":  driver.Name,
	"driver":   driver.Name,
}

func (a *app) newListCmd() *cobra.Command {
	state := listquery.Default()
	var sort string
	cmd := &cobra.Command{
		Use:       "list vehicles|drivers",
		Short:     "List stored vehicles or drivers",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"vehicles", "drivers"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := listTargets[strings.ToLower(strings.TrimSpace(args[0]))]
			if !ok {
				return fmt.Errorf("unknown list %q, expected vehicles or drivers", args[0])
			}
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

			state.Sort = listquery.ParseSort(sort)
			table, err := o.Entries(ctx, name, state.Normalize(), cfg.Locales.Default)
			if err != nil {
				return err
			}
			renderer, err := render.New()
			if err != nil {
				return err
			}
			return renderer.Table(cmd.OutOrStdout(), table)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&state.Page, "page", listquery.DefaultPage, "page number")
	flags.IntVar(&state.PageSize, "page-size", listquery.DefaultPageSize, "entries per page")
	flags.StringVar(&sort, "sort", "", "sort as field or field:desc")
	flags.StringVar(&state.Search, "search", "", "free text search")
	return cmd
}
