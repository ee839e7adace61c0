package cmd

import (
	"fmt"

	"github.com/audiolibrelab/soundboard/internal/session"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show resolved configuration",
	Long:  `Display the resolved configuration with inheritance indicators. Shows which values are inherited from the default profile, set globally or profile-specific.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inh := cfg.Inheritance

		fmt.Printf("=== RESOLVED CONFIGURATION ===\n")
		fmt.Printf("config_file: %s\n", cfgFile)

		fmt.Printf("\n[Audio]\n")
		fmt.Printf("backend: %s %s\n", cfg.Audio.Backend, getInheritanceIndicator(inh.Audio.Backend))
		fmt.Printf("source: %s %s\n", displayOrDefault(cfg.Audio.Source), getInheritanceIndicator(inh.Audio.Source))
		fmt.Printf("quality: %s %s\n", cfg.Audio.Quality, getInheritanceIndicator(inh.Audio.Quality))
		fmt.Printf("sample_rate: %d %s\n", cfg.Audio.SampleRate, getInheritanceIndicator(inh.Audio.SampleRate))

		fmt.Printf("\n[Slots]\n")
		fmt.Printf("count: %d %s\n", cfg.Slots, getInheritanceIndicator(inh.Slots))
		for i := 0; i < cfg.Slots; i++ {
			fmt.Printf("  %d. %s\n", i+1, session.RecordingName(i))
		}

		fmt.Printf("\n[Clips] %s\n", getInheritanceIndicator(inh.Clips))
		for i, clip := range cfg.Clips {
			fmt.Printf("  %d. %s: %s\n", i+1, clip.Label, clip.Path)
		}

		fmt.Printf("\n[Output]\n")
		fmt.Printf("directory: %s %s\n", cfg.Output.Directory, getInheritanceIndicator(inh.Output.Directory))

		fmt.Printf("\n[Store]\n")
		fmt.Printf("path: %s %s\n", cfg.Store.Path, getInheritanceIndicator(inh.Store.Path))

		return nil
	},
}

func displayOrDefault(v string) string {
	if v == "" {
		return "(default)"
	}
	return v
}

// getInheritanceIndicator returns a formatted indicator for inheritance status
func getInheritanceIndicator(status string) string {
	switch status {
	case "inherited":
		return "[inherited]"
	case "profile-specific":
		return "[profile-specific]"
	case "global":
		return "[global]"
	default:
		return "[unknown]"
	}
}
