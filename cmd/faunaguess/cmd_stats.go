package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsFlags struct {
	dataFile string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFlags.dataFile, "data", "", "Knowledge file path (default from DATA_FILE)")
}

func runStats(cmd *cobra.Command, _ []string) error {
	svc, err := buildService(cmd.Context(), statsFlags.dataFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stats := svc.Stats()

	fmt.Fprintf(out, "Games played:    %d\n", stats.Played)
	fmt.Fprintf(out, "Correct guesses: %d\n", stats.Correct)
	if stats.Played > 0 {
		fmt.Fprintf(out, "Success rate:    %.1f%%\n", float64(stats.Correct)/float64(stats.Played)*100)
	}
	fmt.Fprintf(out, "Animals known:   %d\n", len(svc.Animals()))
	fmt.Fprintf(out, "Questions known: %d\n", len(svc.Questions()))
	return nil
}
