package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"cellseq/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	match := ""
	if len(os.Args) > 2 {
		match = os.Args[2]
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "notes":
		err = playNotes(match)
	case "panic":
		err = panicAll(match)
	case "poll":
		pollPorts()
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI port checks")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List MIDI output ports")
	fmt.Println("  notes [port]  - Play a C major arpeggio through the outbox")
	fmt.Println("  panic [port]  - Note off on every channel and key")
	fmt.Println("  poll          - Watch for ports appearing and disappearing")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	outs, err := midi.ListOutputs()
	if err != nil {
		fmt.Println("\nTIMEOUT! The MIDI driver is hung.")
		fmt.Println("Fix on macOS: sudo killall coreaudiod midiserver")
		return err
	}
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

// connect waits for the matching port to open
func connect(ctx context.Context, match string) (*midi.Output, error) {
	out := midi.NewOutput(match)
	go out.Run(ctx)

	deadline := time.After(4 * time.Second)
	for !out.Connected() {
		select {
		case <-deadline:
			return nil, fmt.Errorf("no output port matching %q", match)
		case <-time.After(50 * time.Millisecond):
		}
	}
	fmt.Printf("Using output: %s\n", out.Name())
	return out, nil
}

func playNotes(match string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := connect(ctx, match)
	if err != nil {
		return err
	}

	box := midi.NewOutbox(midi.DefaultOutboxSize)
	done := make(chan struct{})
	go func() {
		midi.Pump(ctx, box, out.Send)
		close(done)
	}()

	voices := midi.NewVoices(3)
	for _, note := range []uint8{60, 64, 67, 72, 67, 64, 60} {
		for _, msg := range voices.Trigger(note, 100, 0) {
			p, err := midi.Encode(msg)
			if err != nil {
				return err
			}
			fmt.Printf("  %-32s % X\n", msg, []byte(p))
			box.Send(p)
		}
		time.Sleep(250 * time.Millisecond)
	}
	for _, msg := range voices.AllOff(0) {
		p, _ := midi.Encode(msg)
		box.Send(p)
	}

	box.Close()
	<-done
	fmt.Printf("Done! dropped=%d\n", box.Dropped())
	return nil
}

func panicAll(match string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := connect(ctx, match)
	if err != nil {
		return err
	}

	for ch := uint8(0); ch < 16; ch++ {
		// all notes off (CC 123) plus explicit note offs
		out.Send(gomidi.ControlChange(ch, 123, 0))
		for key := uint8(0); key < 128; key++ {
			out.Send(gomidi.NoteOff(ch, key))
		}
	}
	fmt.Println("Done!")
	return nil
}

func pollPorts() {
	fmt.Println("Polling for port changes every 2 seconds...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	last := ""
	for {
		outs, err := midi.ListOutputs()
		if err != nil {
			fmt.Printf("[%s] %v\n", time.Now().Format("15:04:05"), err)
			time.Sleep(2 * time.Second)
			continue
		}

		var names []string
		for _, p := range outs {
			names = append(names, p.String())
		}
		current := strings.Join(names, ",")

		if current != last {
			fmt.Printf("\n[%s] Port change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Outputs: %v\n", names)
			last = current
		}

		time.Sleep(2 * time.Second)
	}
}
