package cmd

import (
	"fmt"

	"github.com/audiolibrelab/soundboard/internal/store"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List logged recordings, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(store.Options{Path: cfg.Store.Path})
		if err != nil {
			return err
		}
		defer st.Close()

		sounds, err := st.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		if len(sounds) == 0 {
			fmt.Println("No recordings yet")
			return nil
		}

		for _, s := range sounds {
			fmt.Printf("%5d  %-12s  %s\n", s.ID, s.Name, s.AudioURI)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum rows to show (0 = all)")
}
