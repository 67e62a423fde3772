package commands

import (
	"log/slog"

	"lectern/lib/bookpdf"
	"lectern/lib/serviceutil"
	"lectern/services/chapters"
	"lectern/services/transcripts"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resumeCmd)
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resumes whichever batch download was interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := openEnv()
		defer env.Close()

		client := loggedInClient(ctx, env.cfg)

		tService := transcripts.NewService(client, env.store, env.ledger, transcripts.Options{
			OutputDir: env.cfg.OutputDir,
			Delay:     env.delay(),
		})
		summary, resumed, err := tService.Resume(ctx)
		if err != nil {
			serviceutil.Fatal("transcript batch failed", err)
		}
		if resumed {
			slog.Info("done", "processed", summary.Processed, "skipped", summary.Skipped)
			return
		}

		cService := chapters.NewService(client, bookpdf.New(client.Http), env.store, env.ledger, chapters.Options{
			OutputDir: env.cfg.OutputDir,
			Delay:     env.delay(),
		})
		cSummary, cResumed, err := cService.Resume(ctx)
		if err != nil {
			serviceutil.Fatal("chapter batch failed", err)
		}
		if cResumed {
			slog.Info("done", "processed", cSummary.Processed, "skipped", cSummary.Skipped)
			return
		}

		slog.Info("nothing to resume")
	},
}
