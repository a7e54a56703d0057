package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"acarsgo/internal/acars"
	"acarsgo/internal/device"
	"acarsgo/internal/dongle"
	"acarsgo/internal/dongle/hotplug"

	"github.com/stretchr/testify/require"
)

// fakeDongle streams mid-scale (127) buffers until its context is done,
// standing in for real USB/rtl_tcp hardware.
type fakeDongle struct {
	serial    string
	gainTable []int32
	closed    bool
}

func (f *fakeDongle) Serial() string            { return f.serial }
func (f *fakeDongle) SetGain(int32) error       { return nil }
func (f *fakeDongle) SetGainAuto() error        { return nil }
func (f *fakeDongle) SetPPM(int32) error        { return nil }
func (f *fakeDongle) SetCenterFreq(uint32) error { return nil }
func (f *fakeDongle) SetSampleRate(uint32) error { return nil }
func (f *fakeDongle) EnableBiasTee(bool) error  { return nil }
func (f *fakeDongle) GainTable() []int32        { return f.gainTable }
func (f *fakeDongle) Close() error              { f.closed = true; return nil }

func (f *fakeDongle) ReadAsync(ctx context.Context, blockLen int, cb func([]byte)) error {
	buf := make([]byte, blockLen)
	for i := range buf {
		buf[i] = 127
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			cb(buf)
		}
	}
}

type collectingSink struct {
	mu  sync.Mutex
	msg []acars.AssembledMessage
}

func (c *collectingSink) Send(m acars.AssembledMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg = append(c.msg, m)
}
func (c *collectingSink) Close() error { return nil }

func testConfig(serial string) device.Config {
	return device.Config{Serial: serial, Frequencies: []float64{131.55}}
}

// biasTeeRejectingDongle fails EnableBiasTee, the way RTLTCPDongle does,
// to exercise the GPIO fallback path.
type biasTeeRejectingDongle struct {
	fakeDongle
}

func (d *biasTeeRejectingDongle) EnableBiasTee(bool) error {
	return errors.New("not supported over this transport")
}

type fakeBiasController struct {
	setCalls int
	closed   bool
}

func (c *fakeBiasController) Set(on bool) error { c.setCalls++; return nil }
func (c *fakeBiasController) Close() error      { c.closed = true; return nil }

func TestOpenOneFallsBackToGPIOBiasTee(t *testing.T) {
	s := New(nil, &collectingSink{})
	bc := &fakeBiasController{}
	s.newBiasTee = func() (biasController, error) { return bc, nil }
	s.openDongle = func(cfg device.Config) (dongle.Dongle, error) {
		return &biasTeeRejectingDongle{fakeDongle{serial: cfg.Serial}}, nil
	}

	cfg := testConfig("tee")
	cfg.BiasTee = true
	dg, _, err := s.openOne(cfg)
	require.NoError(t, err)
	defer dg.Close()

	require.Equal(t, 1, bc.setCalls)
}

func TestOpenOneMapsNotFoundErrorToDeviceNotFound(t *testing.T) {
	s := New(nil, &collectingSink{})
	s.openDongle = func(cfg device.Config) (dongle.Dongle, error) {
		return nil, &dongle.NotFoundError{Serial: cfg.Serial}
	}

	_, _, err := s.openOne(testConfig("missing"))
	require.Error(t, err)
	var notFound *device.DeviceNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.Serial)
}

func TestOpenOneMapsOtherOpenErrorsToSampleSourceError(t *testing.T) {
	s := New(nil, &collectingSink{})
	s.openDongle = func(cfg device.Config) (dongle.Dongle, error) {
		return nil, errors.New("usb bus reset")
	}

	_, _, err := s.openOne(testConfig("flaky"))
	require.Error(t, err)
	var sampleErr *device.SampleSourceError
	require.ErrorAs(t, err, &sampleErr)
}

func TestRunReturnsErrorWhenNoDeviceOpens(t *testing.T) {
	s := New(nil, &collectingSink{})
	s.openDongle = func(cfg device.Config) (dongle.Dongle, error) {
		return nil, errors.New("no hardware")
	}

	err := s.Run(context.Background(), []device.Config{testConfig("a"), testConfig("b")})
	require.Error(t, err)
	var nd *NoDevicesOpenedError
	require.ErrorAs(t, err, &nd)
	require.Equal(t, 2, nd.Attempted)
}

func TestRunContinuesPastOneFailedDevice(t *testing.T) {
	sink := &collectingSink{}
	s := New(nil, sink)

	s.openDongle = func(cfg device.Config) (dongle.Dongle, error) {
		if cfg.Serial == "bad" {
			return nil, errors.New("not found")
		}
		return &fakeDongle{serial: cfg.Serial}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, []device.Config{testConfig("bad"), testConfig("good")})
	require.NoError(t, err)
}

// fakeWatcher emits one canned event then blocks until ctx is done.
type fakeWatcher struct {
	ev hotplug.Event
}

func (w *fakeWatcher) Watch(ctx context.Context, events chan<- hotplug.Event) error {
	events <- w.ev
	<-ctx.Done()
	return ctx.Err()
}

func TestRunRetriesPendingDeviceOnHotplugAdd(t *testing.T) {
	sink := &collectingSink{}
	s := New(nil, sink)

	var attempts int32
	s.openDongle = func(cfg device.Config) (dongle.Dongle, error) {
		if cfg.Serial == "late" {
			n := atomic.AddInt32(&attempts, 1)
			if n == 1 {
				return nil, errors.New("not plugged in yet")
			}
		}
		return &fakeDongle{serial: cfg.Serial}, nil
	}
	s.newHotplug = func() (hotplugWatcher, error) {
		return &fakeWatcher{ev: hotplug.Event{Action: "add", Serial: "late"}}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, []device.Config{testConfig("present"), testConfig("late")})
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}
