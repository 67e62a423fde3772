package commands

import (
	"log/slog"

	"lectern/lib/serviceutil"
	"lectern/services/transcripts"

	"github.com/spf13/cobra"
)

var transcriptsCourse *string

func init() {
	transcriptsCourse = transcriptsCmd.Flags().String("course", "", "Href of the course whose transcripts to download.")
	transcriptsCmd.MarkFlagRequired("course")
	rootCmd.AddCommand(transcriptsCmd)
}

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts --course <href>",
	Short: "Downloads every video transcript of a course as text files.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := openEnv()
		defer env.Close()

		client := loggedInClient(ctx, env.cfg)
		service := transcripts.NewService(client, env.store, env.ledger, transcripts.Options{
			OutputDir: env.cfg.OutputDir,
			Delay:     env.delay(),
		})

		summary, err := service.Start(ctx, *transcriptsCourse)
		if err != nil {
			serviceutil.Fatal("transcript batch failed", err)
		}
		slog.Info("done", "processed", summary.Processed, "skipped", summary.Skipped)
	},
}
