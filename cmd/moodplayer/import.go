package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amanyadav21/moody-player/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "import <manifest.toml>",
		Short: "Upload every song listed in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := importer.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = ctx.config.Client.Concurrency
			}

			im := importer.New(ctx.client(),
				importer.WithConcurrency(concurrency),
				importer.WithLogger(ctx.logger(cmd.ErrOrStderr())),
			)
			outcomes, err := im.Import(cmd.Context(), manifest.Songs)

			out := cmd.OutOrStdout()
			for i, o := range outcomes {
				if o.Err != nil {
					fmt.Fprintf(out, "%3d  FAIL  %s: %v\n", i+1, o.Entry.Title, userError(o.Err))
					continue
				}
				fmt.Fprintf(out, "%3d  ok    %s [%s] %s\n", i+1, o.Song.Title, o.Song.Mood, o.Song.ID)
			}
			if err != nil {
				return err
			}
			if failed := importer.Failed(outcomes); failed > 0 {
				return fmt.Errorf("%d of %d songs failed to import", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Concurrent uploads (default client.concurrency)")
	return cmd
}
