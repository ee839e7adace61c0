package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/audiolibrelab/soundboard/internal/service"
	"github.com/audiolibrelab/soundboard/internal/session"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Run an interactive soundboard session",
	Long: `Run an interactive session reading one command per line:

  rec N     start recording into slot N
  stop N    stop recording slot N
  once N    play the last recording of slot N once
  loop N    start or stop looping slot N
  clip K    play bundled clip K (label or number)
  status    show every slot
  clips     list bundled clips
  quit      release everything and exit

Slots are numbered from 1.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg, processLogWriter())
		if err != nil {
			return err
		}
		defer closeService(svc)

		return runBoard(cmd.Context(), svc, os.Stdin, os.Stdout)
	},
}

// runBoard forwards each input line to svc until quit or end of input.
func runBoard(ctx context.Context, svc service.Service, in io.Reader, out io.Writer) error {
	printStatus(out, svc.Status())

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			if quit := boardCommand(ctx, svc, fields, out); quit {
				return nil
			}
		}
		fmt.Fprint(out, "> ")
	}

	return scanner.Err()
}

func boardCommand(ctx context.Context, svc service.Service, fields []string, out io.Writer) bool {
	name, arg := fields[0], strings.Join(fields[1:], " ")

	slotOp := map[string]func(context.Context, int){
		"rec":  svc.StartRecording,
		"stop": svc.StopRecording,
		"once": svc.PlayOnce,
		"loop": svc.ToggleLoop,
	}

	switch name {
	case "quit", "exit", "q":
		return true
	case "status":
		printStatus(out, svc.Status())
	case "clips":
		list := svc.Clips()
		if len(list) == 0 {
			fmt.Fprintln(out, "No clips configured")
		}
		for i, clip := range list {
			fmt.Fprintf(out, "  %d. %s\n", i+1, clip.Label)
		}
	case "clip":
		if err := svc.PlayClip(ctx, arg); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		reportLastError(svc, out)
	default:
		op, ok := slotOp[name]
		if !ok {
			fmt.Fprintf(out, "unknown command %q (rec, stop, once, loop, clip, status, clips, quit)\n", name)
			return false
		}
		slot, err := parseSlot(arg, svc.Slots())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		op(ctx, slot)
		if !reportLastError(svc, out) {
			printSlot(out, svc.Status()[slot])
		}
	}

	return false
}

func reportLastError(svc service.Service, out io.Writer) bool {
	msg := svc.GetLastError()
	if msg == "" {
		return false
	}
	fmt.Fprintf(out, "failed: %s\n", msg)
	return true
}

// parseSlot converts a 1-based slot number into an index.
func parseSlot(arg string, slots int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("slot must be a number between 1 and %d, got %q", slots, arg)
	}
	if n < 1 || n > slots {
		return 0, fmt.Errorf("slot must be between 1 and %d, got %d", slots, n)
	}
	return n - 1, nil
}

func printStatus(out io.Writer, states []session.SlotState) {
	for _, state := range states {
		printSlot(out, state)
	}
}

func printSlot(out io.Writer, state session.SlotState) {
	ref := "-"
	if state.Reference != "" {
		ref = state.Reference.String()
	}
	fmt.Fprintf(out, "  [%d] %-12s recording=%-5t looping=%-5t %s\n",
		state.Index+1, state.Name, state.Recording, state.Looping, ref)
}
