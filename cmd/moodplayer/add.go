package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amanyadav21/moody-player/internal/client"
	"github.com/amanyadav21/moody-player/internal/importer"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title, artist, moodFlag, mimeType string

	cmd := &cobra.Command{
		Use:   "add <audio-file>",
		Short: "Upload a song to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open audio: %w", err)
			}
			defer f.Close()

			if mimeType == "" {
				mimeType = importer.MediaType(path)
			}
			resp, err := ctx.client().Upload(cmd.Context(), client.UploadRequest{
				Title:    title,
				Artist:   artist,
				Mood:     moodFlag,
				Filename: filepath.Base(path),
				MimeType: mimeType,
				Audio:    f,
			})
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			fmt.Fprintf(out, "%s  %s - %s [%s]\n", resp.Song.ID, resp.Song.Title, resp.Song.Artist, resp.Song.Mood)
			fmt.Fprintln(out, resp.Song.AudioURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Song title")
	cmd.Flags().StringVarP(&artist, "artist", "a", "", "Song artist")
	cmd.Flags().StringVarP(&moodFlag, "mood", "m", "", "Song mood")
	cmd.Flags().StringVar(&mimeType, "type", "", "Media type (guessed from the extension when empty)")
	return cmd
}
