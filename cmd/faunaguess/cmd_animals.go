package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var animalsFlags struct {
	dataFile string
}

var animalsCmd = &cobra.Command{
	Use:   "animals",
	Short: "List the animals in the knowledge base",
	RunE:  runAnimals,
}

func init() {
	animalsCmd.Flags().StringVar(&animalsFlags.dataFile, "data", "", "Knowledge file path (default from DATA_FILE)")
}

func runAnimals(cmd *cobra.Command, _ []string) error {
	svc, err := buildService(cmd.Context(), animalsFlags.dataFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, a := range svc.Animals() {
		known := 0
		for _, ans := range a.Answers {
			if ans.Known() {
				known++
			}
		}
		fmt.Fprintf(out, "%2d. %s (%d known answers, guessed correctly %d times)\n",
			i+1, a.Name, known, a.CorrectGuesses)
	}
	return nil
}
