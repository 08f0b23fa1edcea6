package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amanyadav21/moody-player/internal/api"
	"github.com/amanyadav21/moody-player/internal/client"
	"github.com/amanyadav21/moody-player/internal/mood"
)

func newSongsCommand(ctx *commandContext) *cobra.Command {
	var moodFlag string
	var all bool

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "List songs for a mood, or the whole catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			var (
				resp *api.SongsResponse
				err  error
			)
			if all {
				resp, err = c.AllSongs(cmd.Context())
			} else {
				resp, err = c.SongsByMood(cmd.Context(), mood.Normalize(moodFlag))
			}
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			if resp.UsedFallback {
				fmt.Fprintf(out, "No %s songs; showing the full catalog.\n", mood.Normalize(moodFlag))
			}
			if len(resp.Songs) == 0 {
				fmt.Fprintln(out, "No songs found.")
				return nil
			}
			fmt.Fprintln(out, renderSongs(out, resp.Songs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&moodFlag, "mood", "m", "", "Mood to filter by")
	cmd.Flags().BoolVar(&all, "all", false, "List every song")
	return cmd
}

// userError prefixes a client failure with its user-facing message.
func userError(err error) error {
	if kind := client.KindOf(err); kind != "" {
		return fmt.Errorf("%s: %w", kind.Message(), err)
	}
	return err
}
