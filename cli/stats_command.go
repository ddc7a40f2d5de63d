package main

import (
	"github.com/spf13/cobra"

	"ytq/internal/app"
	"ytq/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var wrapped, all, week bool
	var month, year, from, to string

	cmd := &cobra.Command{
		Use:     "stats",
		Aliases: []string{"s"},
		Short:   "Show statistics (current year by default)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := stats.PeriodFlags{All: all, Week: week, From: from, To: to}
			if cmd.Flags().Changed("month") {
				flags.Month = &month
			}
			if cmd.Flags().Changed("year") {
				flags.Year = &year
			}

			out, err := ctx.execute(cmd, app.Stats{Period: flags, Wrapped: wrapped})
			if err != nil {
				return err
			}
			res := out.(app.StatsResult)
			colorize := shouldColorize(cmd.OutOrStdout())
			if res.Wrapped != nil {
				renderWrapped(cmd.OutOrStdout(), res.Range, *res.Wrapped, colorize)
				return nil
			}
			renderBasic(cmd.OutOrStdout(), res.Range, *res.Basic, colorize)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wrapped, "wrapped", false, "Show the full year-in-review breakdown")
	cmd.Flags().BoolVar(&all, "all", false, "Use all history instead of the current year")
	cmd.Flags().BoolVar(&week, "week", false, "Last 7 days")
	cmd.Flags().StringVar(&month, "month", "", "Last 30 days, or a specific month (YYYY-MM)")
	cmd.Flags().Lookup("month").NoOptDefVal = stats.Rolling
	cmd.Flags().StringVar(&year, "year", "", "Last 365 days, or a specific year (YYYY)")
	cmd.Flags().Lookup("year").NoOptDefVal = stats.Rolling
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD), inclusive")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD), exclusive")
	return cmd
}
