package main

import (
	"fmt"
	"os"

	"github.com/dkrasnove/faunaguess/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "faunaguess",
	Short: "An animal-guessing game that learns from every round",
	Long: "Faunaguess guesses the animal you are thinking of by asking the\n" +
		"yes/no questions with the highest information gain, and grows its\n" +
		"knowledge base from every round it loses.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(animalsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds a console logger for interactive use: quiet by default so
// log lines do not interleave with prompts.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if lvl, err := zapcore.ParseLevel(config.LogLevel()); err == nil && lvl != zapcore.InfoLevel {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
