package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"ytq/internal/app"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "add <url-or-id>",
		Aliases: []string{"a"},
		Short:   "Add a video to the queue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := ctx.execute(cmd, app.Add{Input: args[0]})
			if err != nil {
				return err
			}
			res := out.(app.AddResult)
			if res.Duplicate {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already in queue\n", res.Ref.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", res.Ref.ID)
			reportEventErr(cmd.ErrOrStderr(), res.EventErr)
			return nil
		},
	}
}

func newNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "next [url-or-id]",
		Aliases: []string{"play", "watch", "open"},
		Short:   "Watch the next video (or a specific one) and remove it from the queue",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			out, err := ctx.execute(cmd, app.Next{Target: target})
			if err != nil {
				return err
			}
			res := out.(app.WatchResult)
			renderWatch(cmd.OutOrStdout(), res)
			reportEventErr(cmd.ErrOrStderr(), res.EventErr)
			return nil
		},
	}
}

func newRandomCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "random",
		Aliases: []string{"r"},
		Short:   "Watch a random video and remove it from the queue",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := ctx.execute(cmd, app.Random{})
			if err != nil {
				return err
			}
			res := out.(app.WatchResult)
			renderWatch(cmd.OutOrStdout(), res)
			reportEventErr(cmd.ErrOrStderr(), res.EventErr)
			return nil
		},
	}
}

func newPeekCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "peek [n]",
		Aliases: []string{"k"},
		Short:   "Show the next videos without removing them",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed < 1 {
					return fmt.Errorf("invalid count %q: must be a positive number", args[0])
				}
				n = parsed
			}
			out, err := ctx.execute(cmd, app.Peek{N: n})
			if err != nil {
				return err
			}
			res := out.(app.QueueResult)
			if len(res.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Next %d of %d (%s mode):\n", len(res.Entries), res.Total, res.Mode)
			fmt.Fprintln(cmd.OutOrStdout(), renderQueueTable(res.Entries))
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the whole queue in stored order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := ctx.execute(cmd, app.List{})
			if err != nil {
				return err
			}
			res := out.(app.QueueResult)
			if len(res.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderQueueTable(res.Entries))
			fmt.Fprintf(cmd.OutOrStdout(), "%s in queue (%s mode)\n", plural(res.Total, "video", "videos"), res.Mode)
			return nil
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <url-or-id>",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove a video from the queue without watching it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := ctx.execute(cmd, app.Remove{Target: args[0]})
			if err != nil {
				return err
			}
			res := out.(app.RemoveResult)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", entryLabel(res.Entry))
			reportEventErr(cmd.ErrOrStderr(), res.EventErr)
			return nil
		},
	}
}

// reportEventErr warns that the queue changed but the history log did not.
func reportEventErr(w io.Writer, err error) {
	if err != nil {
		fmt.Fprintf(w, "warning: queue updated but history was not: %v\n", err)
	}
}
