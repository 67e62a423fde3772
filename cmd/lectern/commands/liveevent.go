package commands

import (
	"log/slog"

	"lectern/lib/serviceutil"
	"lectern/services/liveevents"

	"github.com/spf13/cobra"
)

var liveEventHref *string

func init() {
	liveEventHref = liveEventCmd.Flags().String("event", "", "Href of the live-event replay page.")
	liveEventCmd.MarkFlagRequired("event")
	rootCmd.AddCommand(liveEventCmd)
}

var liveEventCmd = &cobra.Command{
	Use:   "live-event --event <href>",
	Short: "Downloads the english captions of a live-event replay as a text file.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := openEnv()
		defer env.Close()

		client := loggedInClient(ctx, env.cfg)
		service := liveevents.NewService(client, env.ledger, liveevents.Options{
			OutputDir: env.cfg.OutputDir,
		})

		result, err := service.Download(ctx, *liveEventHref)
		if err != nil {
			serviceutil.Fatal("caption download failed", err)
		}
		slog.Info("done", "title", result.Title, "path", result.Path, "cues", result.Cues)
	},
}
