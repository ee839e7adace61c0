package cmd

import (
	"fmt"

	"github.com/audiolibrelab/soundboard/internal/service"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <clip>",
	Short: "Play a bundled clip",
	Long: `Play a bundled clip once, by label or by its position in 'soundboard clips',
and wait for it to finish.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg, processLogWriter())
		if err != nil {
			return err
		}
		defer closeService(svc)

		ctx := cmd.Context()

		if err := svc.PlayClip(ctx, args[0]); err != nil {
			return err
		}
		if msg := svc.GetLastError(); msg != "" {
			return fmt.Errorf("playback failed: %s", msg)
		}

		fmt.Printf("Playing: %s\n", args[0])
		return svc.WaitPlayback(ctx)
	},
}
