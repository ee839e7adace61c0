package cmd

import (
	"fmt"
	"log/slog"

	"github.com/audiolibrelab/soundboard/internal/audio"
	"github.com/audiolibrelab/soundboard/internal/config"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available capture sources",
	Long:  `List the capture sources that can be set as audio.source, using the configured backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := cfg
		if selected == nil {
			selected = &config.Config{Audio: config.AudioConfig{Backend: "pipewire"}}
		}

		backend, err := audio.NewBackend(selected)
		if err != nil {
			return err
		}

		sources, err := backend.ListSources()
		if err != nil {
			return fmt.Errorf("failed to get %s sources: %w", backend.GetType(), err)
		}
		slog.Debug("Listed capture sources", "backend", backend.GetType(), "count", len(sources))

		fmt.Printf("Capture sources (%s, %d found):\n", backend.GetType(), len(sources))
		for i, source := range sources {
			marker := " "
			if selected.Audio.Source == source {
				marker = "*"
			}
			fmt.Printf(" %s%d. %s\n", marker, i+1, source)
		}

		fmt.Printf("\nConfigured source: %s\n", sourceStatus(backend, selected.Audio.Source))

		fmt.Printf("\nSet audio.source to a node name (e.g. \"alsa_input.usb-mic\") or a port (\"node:capture_FL\").\n")
		fmt.Printf("An empty source records from the default input.\n")

		return nil
	},
}

// sourceStatus describes whether the configured source can be captured from
func sourceStatus(v interface{ ValidateSource(string) error }, source string) string {
	if source == "" {
		return "(default input)"
	}
	if err := v.ValidateSource(source); err != nil {
		return fmt.Sprintf("%s [unavailable: %v]", source, err)
	}
	return source + " [ok]"
}
