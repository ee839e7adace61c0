package cmd

import (
	"fmt"

	"github.com/audiolibrelab/soundboard/internal/clips"

	"github.com/spf13/cobra"
)

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "List bundled clips",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := clips.Load(cfg.Clips, cfg.SupportedExtensions)
		if err != nil {
			return err
		}

		printClips(catalog.List())
		return nil
	},
}

func printClips(list []clips.Clip) {
	if len(list) == 0 {
		fmt.Println("No clips configured")
		return
	}

	for i, clip := range list {
		fmt.Printf("  %d. %s (%s)\n", i+1, clip.Label, clip.Reference)
	}
}
