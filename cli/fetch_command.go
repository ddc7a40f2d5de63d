package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytq/internal/app"
	"ytq/internal/fetch"
	"ytq/internal/videoid"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var queueScope, historyScope, allScope bool
	var limit int
	var force, refreshCategories bool

	cmd := &cobra.Command{
		Use:     "fetch [url-or-id...]",
		Aliases: []string{"f"},
		Short:   "Fetch video metadata from the YouTube Data API",
		Long: `Fetch video metadata from the YouTube Data API v3.

Without arguments, videos in the queue that have no metadata yet are
fetched. Explicit IDs (comma or space separated) are always re-fetched.
Requires offline=false and an API key (YTQ_API_KEY, YOUTUBE_API_KEY or
"ytq config youtube_api_key <key>").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := 0
			for _, set := range []bool{queueScope, historyScope, allScope} {
				if set {
					selected++
				}
			}
			if selected > 1 {
				return errors.New("choose only one of --queue, --history or --all")
			}
			if limit < 0 {
				return fmt.Errorf("invalid --limit %d: must not be negative", limit)
			}

			req := fetch.Request{Scope: fetch.ScopeQueue, Force: force, Limit: limit}
			switch {
			case historyScope:
				req.Scope = fetch.ScopeHistory
			case allScope:
				req.Scope = fetch.ScopeAll
			}
			if len(args) > 0 {
				ids, err := videoid.ExtractMany(strings.Join(args, ","))
				if err != nil {
					return err
				}
				req.IDs = ids
			}

			stderr := cmd.ErrOrStderr()
			out, err := ctx.execute(cmd, app.Fetch{
				Request:           req,
				RefreshCategories: refreshCategories,
				Progress: func(processed, total int) {
					fmt.Fprintf(stderr, "Fetched %d/%d\n", processed, total)
				},
			})
			if err != nil {
				var batchErr *fetch.BatchError
				if errors.As(err, &batchErr) && batchErr.Processed > 0 {
					fmt.Fprintf(stderr, "%d of %d videos were saved before the failure; run fetch again to continue.\n", batchErr.Processed, batchErr.Total)
				}
				return err
			}
			renderFetch(cmd.OutOrStdout(), out.(app.FetchResult))
			return nil
		},
	}

	cmd.Flags().BoolVar(&queueScope, "queue", false, "Fetch videos in the queue (default)")
	cmd.Flags().BoolVar(&historyScope, "history", false, "Fetch videos from the history log")
	cmd.Flags().BoolVar(&allScope, "all", false, "Fetch videos from both the queue and the history log")
	cmd.Flags().IntVar(&limit, "limit", 0, "Fetch at most N videos (0 = no limit)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-fetch videos that already have metadata")
	cmd.Flags().BoolVar(&refreshCategories, "refresh-categories", false, "Reload the category table")
	return cmd
}
