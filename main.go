package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"cellseq/config"
	"cellseq/debug"
	"cellseq/midi"
	"cellseq/sequencer"
	"cellseq/theme"
	"cellseq/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (.json or .yaml); default ~/.config/cellseq/config.json")
	port := flag.String("port", "", "MIDI output port name (substring match); overrides the config")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/cellseq/debug.log")
	list := flag.Bool("list", false, "list MIDI output ports and exit")
	flag.Parse()

	if *list {
		outs, err := midi.ListOutputs()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for i, p := range outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		return
	}

	if err := run(*configPath, *port, *debugLog); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, port string, debugLog bool) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(configPath)
	}
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Output.PortName = port
	}

	if debugLog {
		if err := debug.Enable(""); err != nil {
			return err
		}
		defer debug.Disable()
		if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
			debug.Logger().SetLevel(lvl)
		}
	}

	palette, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts.Outbox = midi.NewOutbox(cfg.Output.QueueSize)

	manager, err := sequencer.NewManager(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Output port with hot-plug reconnect, fed by the outbox on its own thread
	output := midi.NewOutput(cfg.Output.PortName)
	go output.Run(ctx)
	pumped := make(chan struct{})
	go func() {
		midi.Pump(ctx, manager.Outbox(), output.Send)
		close(pumped)
	}()

	go manager.Run(ctx)
	debug.Log("main", "started port=%q bpm=%d", cfg.Output.PortName, cfg.Transport.BPM)

	m := tui.NewModel(manager, th, cfg.Output.PortName, cfg.UI.Density)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}

	// Quit from the UI has already been sent; make sure the final note offs
	// reach the port before the context goes away.
	manager.Do(sequencer.Simple(sequencer.ActionQuit))
	<-manager.Done()
	<-pumped
	return nil
}
