package commands

import (
	"fmt"
	"os"

	"lectern/lib/batchstore"
	"lectern/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusLimit *int

func init() {
	statusLimit = statusCmd.Flags().Int("limit", 15, "How many recent outputs to show.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows in-progress batches and recently produced files.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := openEnv()
		defer env.Close()

		batches := table.NewWriter()
		batches.SetOutputMirror(os.Stdout)
		batches.SetStyle(table.StyleLight)
		batches.SetTitle("Batches")
		batches.AppendHeader(table.Row{"Kind", "Progress", "Next Item"})
		for _, kind := range batchstore.Kinds {
			state, err := env.store.Load(ctx, kind)
			if err == batchstore.ErrNoBatch {
				batches.AppendRow(table.Row{string(kind), "-", "-"})
				continue
			}
			if err != nil {
				serviceutil.Fatal("failed to load batch state", err)
			}
			next := "-"
			if !state.Done() {
				next = state.Current().Title
			}
			batches.AppendRow(table.Row{
				string(kind),
				fmt.Sprintf("%d/%d", state.CurrentIndex, len(state.Items)),
				next,
			})
		}
		batches.Render()

		entries, err := env.ledger.Recent(ctx, *statusLimit)
		if err != nil {
			serviceutil.Fatal("failed to read output manifest", err)
		}

		outputs := table.NewWriter()
		outputs.SetOutputMirror(os.Stdout)
		outputs.SetStyle(table.StyleLight)
		outputs.SetTitle("Recent Outputs")
		outputs.AppendHeader(table.Row{"Kind", "Title", "Items", "Created", "Path"})
		for _, e := range entries {
			outputs.AppendRow(table.Row{
				e.Kind, e.Title, e.ItemCount,
				e.CreatedAt.Format("2006-01-02 15:04"),
				e.Path,
			})
		}
		outputs.Render()
	},
}
