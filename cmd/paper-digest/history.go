// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history [date]",
	Short: "List archived digest runs, or show one run's digest",
	Long: `History lists past pipeline runs from the archive, newest first. With a
date argument it prints that day's digest; add --papers for the ranked
paper list instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum runs to list, 0 for all")
	historyCmd.Flags().Bool("papers", false, "show the ranked papers of the given date")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := archive.Open(dataDir())
	if err != nil {
		return err
	}
	defer store.Close()

	asJSON, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	if len(args) == 1 {
		date := args[0]
		if showPapers, _ := cmd.Flags().GetBool("papers"); showPapers {
			papers, err := store.Papers(ctx, date)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(papers)
			}
			for _, p := range papers {
				fmt.Printf("%2d. [%.2f] %s (%s)\n", p.Position, p.Score, p.Title, p.ID)
			}
			return nil
		}
		digest, err := store.Digest(ctx, date)
		if err != nil {
			return err
		}
		fmt.Println(digest)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.History(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs")
		return nil
	}
	fmt.Printf("%-12s %8s  %s\n", "DATE", "PAPERS", "EMAILED")
	for _, r := range runs {
		emailed := "no"
		if r.Sent {
			emailed = "yes"
		}
		fmt.Printf("%-12s %8d  %s\n", r.Date, r.PaperCount, emailed)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
