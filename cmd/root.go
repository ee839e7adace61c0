package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/audiolibrelab/soundboard/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	profile      string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "soundboard",
	Short: "Record, replay and loop short voice clips",
	Long: `Soundboard is a CLI for a small sampler: a few recording slots that can
each capture a clip, play it back once or loop it, plus a list of bundled
clips that play on demand.

Every completed recording is logged to a local SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Configure slog based on verbose level
		setupLogging(verboseLevel)

		// For sources command, only load config if explicitly provided
		if cmd.Name() == "sources" && cfgFile == "" {
			return nil
		}

		// Use default config path if not specified
		if cfgFile == "" {
			cfgFile = os.ExpandEnv("$HOME/.config/soundboard.yaml")
		}

		var err error
		cfg, err = config.LoadOrDefault(cfgFile, profile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/soundboard.yaml)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "configuration profile to use (overrides active_config from file)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug, 2=player output, 3=max tracing")

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(clipsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(infoCmd)
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	var slogLevel slog.Level
	switch level {
	case 0:
		slogLevel = slog.LevelInfo
	case 1, 2, 3:
		slogLevel = slog.LevelDebug
	default:
		slogLevel = slog.LevelInfo
	}

	// Configure text handler for clean terminal output
	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))

	// Set environment variables for maximum tracing (level 3)
	if level >= 3 {
		os.Setenv("PIPEWIRE_DEBUG", "3")
	}
}

// processLogWriter returns where child audio processes write their output
func processLogWriter() io.Writer {
	if verboseLevel >= 2 {
		return os.Stderr
	}
	return nil
}
