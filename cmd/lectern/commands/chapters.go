package commands

import (
	"log/slog"

	"lectern/lib/bookpdf"
	"lectern/lib/serviceutil"
	"lectern/services/chapters"

	"github.com/spf13/cobra"
)

var chaptersBook *string

func init() {
	chaptersBook = chaptersCmd.Flags().String("book", "", "Href of the e-book whose chapters to download.")
	chaptersCmd.MarkFlagRequired("book")
	rootCmd.AddCommand(chaptersCmd)
}

var chaptersCmd = &cobra.Command{
	Use:   "chapters --book <href>",
	Short: "Downloads every chapter of an e-book as PDF files.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := openEnv()
		defer env.Close()

		client := loggedInClient(ctx, env.cfg)
		// chapter images sit behind the same login, reuse the session
		service := chapters.NewService(client, bookpdf.New(client.Http), env.store, env.ledger, chapters.Options{
			OutputDir: env.cfg.OutputDir,
			Delay:     env.delay(),
		})

		summary, err := service.Start(ctx, *chaptersBook)
		if err != nil {
			serviceutil.Fatal("chapter batch failed", err)
		}
		slog.Info("done", "processed", summary.Processed, "skipped", summary.Skipped)
	},
}
