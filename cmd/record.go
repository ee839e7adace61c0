package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiolibrelab/soundboard/internal/service"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <slot>",
	Short: "Record a clip into a slot",
	Long: `Start recording into the given slot (1-based) and stop on Ctrl+C.
The recording is logged to the database as "Recording <slot>".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := parseSlot(args[0], cfg.Slots)
		if err != nil {
			return err
		}

		svc, err := service.New(cfg, processLogWriter())
		if err != nil {
			return err
		}
		defer closeService(svc)

		ctx := cmd.Context()

		svc.StartRecording(ctx, slot)
		if msg := svc.GetLastError(); msg != "" {
			return fmt.Errorf("failed to start recording: %s", msg)
		}

		slog.Info("Recording... Press Ctrl+C to stop", "slot", slot+1)

		// Handle interruption
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		<-sigChan
		slog.Info("Stopping recording...")

		svc.StopRecording(ctx, slot)
		if msg := svc.GetLastError(); msg != "" {
			return fmt.Errorf("failed to stop recording: %s", msg)
		}

		state := svc.Status()[slot]
		fmt.Printf("%s: %s\n", state.Name, state.Reference)
		return nil
	},
}

func closeService(svc service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := svc.Close(ctx); err != nil {
		slog.Error("Failed to close soundboard", "error", err)
	}
}
