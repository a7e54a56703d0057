// Package scanner owns the top-level run loop: opening every
// configured dongle, wiring its device pipeline to the shared output
// sink, and keeping going as long as at least one device is alive.
// Grounded on original_source/rust/oxide-scanner/src/lib.rs's
// OxideScanner::run, which logs and continues past a single device's
// open failure but asserts at least one SDR came up.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"acarsgo/internal/acars"
	"acarsgo/internal/device"
	"acarsgo/internal/dongle"
	"acarsgo/internal/dongle/biastee"
	"acarsgo/internal/dongle/hotplug"
	"acarsgo/internal/output"

	"github.com/charmbracelet/log"
)

// gpioBiasTeeChip/Offset address the GPIO line wired to an external
// bias-tee circuit on dongles with no native bias-tee command, the
// fallback path §11/§12 describes. These match the RTL-SDR Blog V3's
// commonly documented external bias-tee mod wiring; deployments with a
// different chip/offset can still use a device's native command path.
const (
	gpioBiasTeeChip   = "gpiochip0"
	gpioBiasTeeOffset = 17
)

// NoDevicesOpenedError is returned when every configured device failed
// to open; callers map this to the exit code 2 of §6/§7.
type NoDevicesOpenedError struct {
	Attempted int
}

func (e *NoDevicesOpenedError) Error() string {
	return fmt.Sprintf("no SDR devices opened out of %d configured", e.Attempted)
}

// OpenDongle is the dongle-opening strategy Scanner uses per device;
// overridable in tests so they don't need real hardware.
type OpenDongle func(cfg device.Config) (dongle.Dongle, error)

// hotplugWatcher is the subset of hotplug.Watcher Scanner needs,
// narrowed so tests can fake it without a real udev netlink socket.
type hotplugWatcher interface {
	Watch(ctx context.Context, events chan<- hotplug.Event) error
}

// biasController is the subset of biastee.Controller Scanner needs,
// narrowed so tests can fake it without a real GPIO chip.
type biasController interface {
	Set(on bool) error
	Close() error
}

// Scanner drives every configured device concurrently and funnels
// assembled messages into sink.
type Scanner struct {
	logger     *log.Logger
	sink       output.Sink
	openDongle OpenDongle
	newHotplug func() (hotplugWatcher, error)
	newBiasTee func() (biasController, error)
}

// New builds a Scanner. logger may be nil to disable logging.
func New(logger *log.Logger, sink output.Sink) *Scanner {
	return &Scanner{
		logger:     logger,
		sink:       sink,
		openDongle: defaultOpenDongle,
		newHotplug: func() (hotplugWatcher, error) { return hotplug.NewWatcher() },
		newBiasTee: func() (biasController, error) { return biastee.Open(gpioBiasTeeChip, gpioBiasTeeOffset) },
	}
}

// defaultOpenDongle opens over rtl_tcp when a device names a remote
// address, otherwise direct USB by serial.
func defaultOpenDongle(cfg device.Config) (dongle.Dongle, error) {
	if cfg.RemoteAddr != "" {
		return dongle.DialRTLTCP(cfg.RemoteAddr, cfg.Serial)
	}
	return dongle.OpenUSB(cfg.Serial)
}

// Run opens every configured device, starts streaming each on its own
// goroutine, and blocks until every stream goroutine and the hotplug
// retry loop (when one was started) have returned; all of them return
// once ctx is cancelled. It returns NoDevicesOpenedError if none
// opened at startup, matching oxide-scanner's assert!(valid_sdrs > 0).
// When at least one device opened at startup, each device that failed
// to open is retried once, when udev reports a hotplug add event with
// its serial.
func (s *Scanner) Run(ctx context.Context, cfgs []device.Config) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	opened := 0
	var pending []device.Config

	for _, cfg := range cfgs {
		dg, dev, err := s.openOne(cfg)
		if err != nil {
			s.logf("device %s failed to open: %v", cfg.Serial, err)
			pending = append(pending, cfg)
			continue
		}

		opened++
		s.startStream(ctx, &wg, cfg, dg, dev)
	}

	if opened == 0 {
		return &NoDevicesOpenedError{Attempted: len(cfgs)}
	}

	if len(pending) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.retryPending(ctx, &wg, &mu, pending)
		}()
	}

	wg.Wait()
	return nil
}

// startStream launches dev's streaming goroutine, tracked by wg and
// torn down when it exits.
func (s *Scanner) startStream(ctx context.Context, wg *sync.WaitGroup, cfg device.Config, dg dongle.Dongle, dev *device.Device) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer dg.Close()
		s.stream(ctx, cfg, dg, dev)
	}()
}

// retryPending watches udev for add events matching a still-pending
// device's serial and retries opening it, the hotplug concern
// SPEC_FULL.md §11 wires for devices absent at startup.
func (s *Scanner) retryPending(ctx context.Context, wg *sync.WaitGroup, mu *sync.Mutex, pending []device.Config) {
	w, err := s.newHotplug()
	if err != nil {
		s.logf("hotplug watcher unavailable, pending devices will not be retried: %v", err)
		return
	}

	events := make(chan hotplug.Event, 8)
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, events) }()

	remaining := make(map[string]device.Config, len(pending))
	for _, cfg := range pending {
		remaining[cfg.Serial] = cfg
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				s.logf("hotplug watcher stopped: %v", err)
			}
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Action != "add" {
				continue
			}
			mu.Lock()
			cfg, ok := remaining[ev.Serial]
			if ok {
				delete(remaining, ev.Serial)
			}
			mu.Unlock()
			if !ok {
				continue
			}

			dg, dev, err := s.openOne(cfg)
			if err != nil {
				s.logf("device %s: retry after hotplug add failed: %v", cfg.Serial, err)
				continue
			}
			s.logf("device %s: opened after hotplug add", cfg.Serial)
			s.startStream(ctx, wg, cfg, dg, dev)
		}
	}
}

// openOne validates cfg, opens its dongle, configures gain/ppm/rate/
// freq/bias-tee, and builds the device pipeline.
func (s *Scanner) openOne(cfg device.Config) (dongle.Dongle, *device.Device, error) {
	dev, err := device.NewDevice(cfg, s.logger)
	if err != nil {
		return nil, nil, err
	}
	dev.SetSink(func(msg acars.AssembledMessage) {
		if s.sink != nil {
			s.sink.Send(msg)
		}
	})

	dg, err := s.openDongle(cfg)
	if err != nil {
		var notFound *dongle.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil, &device.DeviceNotFoundError{Serial: cfg.Serial}
		}
		return nil, nil, &device.SampleSourceError{Serial: cfg.Serial, Err: err}
	}

	if err := dg.SetSampleRate(uint32(acars.INTRATE * dev.Config.M)); err != nil {
		dg.Close()
		return nil, nil, &device.SampleSourceError{Serial: cfg.Serial, Err: err}
	}
	if err := dg.SetCenterFreq(uint32(dev.CenterHz)); err != nil {
		dg.Close()
		return nil, nil, &device.SampleSourceError{Serial: cfg.Serial, Err: err}
	}
	if err := dg.SetPPM(dev.Config.PPM); err != nil {
		dg.Close()
		return nil, nil, &device.SampleSourceError{Serial: cfg.Serial, Err: err}
	}
	if dev.Config.IsAGC() {
		_ = dg.SetGainAuto()
	} else {
		_ = dg.SetGain(dongle.NearestGain(dg.GainTable(), dev.Config.GainTenths))
	}
	if dev.Config.BiasTee {
		if err := dg.EnableBiasTee(true); err != nil {
			s.logf("device %s: bias-tee unsupported on this transport, falling back to GPIO: %v", cfg.Serial, err)
			if gerr := s.enableGPIOBiasTee(cfg.Serial); gerr != nil {
				s.logf("device %s: GPIO bias-tee fallback failed: %v", cfg.Serial, gerr)
			}
		}
	}

	return dg, dev, nil
}

// enableGPIOBiasTee drives the GPIO fallback for dongles whose
// transport has no native bias-tee command.
func (s *Scanner) enableGPIOBiasTee(serial string) error {
	c, err := s.newBiasTee()
	if err != nil {
		return fmt.Errorf("opening gpio bias-tee line: %w", err)
	}
	if err := c.Set(true); err != nil {
		c.Close()
		return fmt.Errorf("setting gpio bias-tee line: %w", err)
	}
	return nil
}

// stream runs the dongle's blocking read loop until ctx is cancelled
// or the dongle errors out, feeding every buffer to dev.ProcessBytes.
func (s *Scanner) stream(ctx context.Context, cfg device.Config, dg dongle.Dongle, dev *device.Device) {
	blockLen := 2 * acars.RTLOUTBUFSZ * dev.Config.M
	err := dg.ReadAsync(ctx, blockLen, func(buf []byte) {
		if err := dev.ProcessBytes(buf); err != nil {
			s.logf("device %s: %v", cfg.Serial, err)
		}
	})
	if err != nil && ctx.Err() == nil {
		s.logf("device %s: stream ended: %v", cfg.Serial, err)
	}
}

func (s *Scanner) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Warnf(format, args...)
	}
}
