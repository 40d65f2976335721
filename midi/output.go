package midi

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"time"

	"cellseq/debug"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrNotConnected is returned by Output.Send while no port is open
var ErrNotConnected = errors.New("midi output not connected")

// ErrPortScanTimeout means the driver did not answer in time
var ErrPortScanTimeout = errors.New("midi port scan timed out")

const scanTimeout = 3 * time.Second

// Output keeps one output port open, matched by case-insensitive name
// substring, and reopens it when the device is replugged.
type Output struct {
	match    string
	pollRate time.Duration

	mu     sync.RWMutex
	name   string
	port   drivers.Out
	sender func(gomidi.Message) error
}

// NewOutput matches ports containing match; empty picks the first port
func NewOutput(match string) *Output {
	return &Output{
		match:    strings.ToLower(match),
		pollRate: time.Second,
	}
}

// Name returns the open port's name, or "" when disconnected
func (o *Output) Name() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name
}

func (o *Output) Connected() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sender != nil
}

// Send writes one raw message to the open port. The read lock is held
// for the write so a reconnect cannot close the port underneath it.
func (o *Output) Send(msg gomidi.Message) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.sender == nil {
		return ErrNotConnected
	}
	return o.sender(msg)
}

// Run polls for the port until ctx is done (blocking - run in goroutine)
func (o *Output) Run(ctx context.Context) {
	ticker := time.NewTicker(o.pollRate)
	defer ticker.Stop()

	o.scan()

	for {
		select {
		case <-ctx.Done():
			o.close()
			return
		case <-ticker.C:
			o.scan()
		}
	}
}

func (o *Output) scan() {
	ports, err := ListOutputs()
	if err != nil {
		debug.LogEvery(10, "output", "scan: %v", err)
		return
	}

	o.mu.RLock()
	current := o.name
	o.mu.RUnlock()

	var found drivers.Out
	for _, p := range ports {
		if o.matches(p.String()) {
			found = p
			break
		}
	}

	switch {
	case found == nil && current != "":
		debug.Warn("output disconnected", "port", current)
		o.close()
	case found != nil && found.String() != current:
		sender, err := gomidi.SendTo(found)
		if err != nil {
			err = fault.Wrap(err, fmsg.With("open output "+found.String()))
			debug.Error("open output", "port", found.String(), "err", err)
			return
		}
		o.close()
		o.mu.Lock()
		o.name = found.String()
		o.port = found
		o.sender = sender
		o.mu.Unlock()
		debug.Log("output", "connected %s", found.String())
	}
}

func (o *Output) matches(name string) bool {
	return o.match == "" || strings.Contains(strings.ToLower(name), o.match)
}

func (o *Output) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.port != nil {
		o.port.Close()
	}
	o.name = ""
	o.port = nil
	o.sender = nil
}

// ListOutputs returns the driver's output ports. Some backends hang while
// enumerating, so the call gives up after a few seconds.
func ListOutputs() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(scanTimeout):
		return nil, fault.Wrap(ErrPortScanTimeout,
			fmsg.WithDesc("list outputs", "The MIDI driver did not answer. On macOS try restarting midiserver."))
	}
}

// Pump forwards packets from box to send on a locked OS thread until the
// outbox is closed or ctx is done. Send failures are logged and the packet
// is dropped.
func Pump(ctx context.Context, box *Outbox, send func(gomidi.Message) error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-box.C():
			if !ok {
				return
			}
			if err := send(gomidi.Message(p)); err != nil {
				debug.LogEvery(50, "pump", "send %X: %v", []byte(p), err)
			}
		}
	}
}
