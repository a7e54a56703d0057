// Package hotplug watches udev for RTL-SDR USB devices appearing and
// disappearing, so internal/scanner can open a device configured by
// serial as soon as it's plugged in rather than only at startup.
//
// No repo in the retrieval pack imports github.com/jochenvg/go-udev —
// the teacher only lists it in go.mod — so this wrapper is written
// from the library's documented Udev/Monitor/Device API rather than
// from an in-pack usage example.
package hotplug

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// Event describes a udev add/remove notification for a USB device.
type Event struct {
	Action string // "add" or "remove"
	Serial string
	DevPath string
}

// Watcher streams hotplug events for the usb subsystem.
type Watcher struct {
	monitor *udev.Monitor
}

// NewWatcher builds a netlink udev monitor filtered to the usb
// subsystem, the way udevadm monitor --subsystem-match=usb does.
func NewWatcher() (*Watcher, error) {
	u := &udev.Udev{}
	m := u.NewMonitorFromNetlink("udev")
	if err := m.FilterAddMatchSubsystem("usb"); err != nil {
		return nil, fmt.Errorf("filtering udev monitor to usb subsystem: %w", err)
	}
	return &Watcher{monitor: m}, nil
}

// Watch streams events until ctx is cancelled, returning ctx.Err().
// It returns a wrapped error if the monitor reports one, and nil if
// the monitor's device or error channel closes.
func (w *Watcher) Watch(ctx context.Context, events chan<- Event) error {
	devCh, errCh, err := w.monitor.DeviceChan(ctx)
	if err != nil {
		return fmt.Errorf("starting udev device channel: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errCh:
			if !ok {
				return nil
			}
			if err != nil {
				return fmt.Errorf("udev monitor error: %w", err)
			}
		case dev, ok := <-devCh:
			if !ok {
				return nil
			}
			events <- Event{
				Action:  dev.Action(),
				Serial:  dev.PropertyValue("ID_SERIAL_SHORT"),
				DevPath: dev.Devnode(),
			}
		}
	}
}
