package dongle

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/bemasher/rtltcp"
)

// RTLTCPDongle drives a remote dongle over the rtl_tcp wire protocol,
// the way rtlamr's Receiver embeds rtltcp.SDR and drives it with the
// same handful of Set* calls before reading raw samples off the
// connection with io.ReadFull.
type RTLTCPDongle struct {
	sdr    rtltcp.SDR
	serial string
}

// DialRTLTCP connects to a rtl_tcp server at addr (host:port).
func DialRTLTCP(addr, serial string) (*RTLTCPDongle, error) {
	raddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving rtl_tcp address %s: %w", addr, err)
	}

	d := &RTLTCPDongle{serial: serial}
	if err := d.sdr.Connect(raddr); err != nil {
		return nil, fmt.Errorf("connecting to rtl_tcp at %s: %w", addr, err)
	}
	return d, nil
}

func (d *RTLTCPDongle) Serial() string { return d.serial }

func (d *RTLTCPDongle) SetGain(tenthsDB int32) error {
	d.sdr.SetGainMode(true)
	d.sdr.SetGain(tenthsDB)
	return nil
}

func (d *RTLTCPDongle) SetGainAuto() error {
	d.sdr.SetGainMode(false)
	d.sdr.SetAGCMode(true)
	return nil
}

func (d *RTLTCPDongle) SetPPM(ppm int32) error {
	d.sdr.SetFreqCorrection(ppm)
	return nil
}

func (d *RTLTCPDongle) SetCenterFreq(hz uint32) error {
	d.sdr.SetCenterFreq(hz)
	return nil
}

func (d *RTLTCPDongle) SetSampleRate(hz uint32) error {
	d.sdr.SetSampleRate(hz)
	return nil
}

// EnableBiasTee is a best-effort no-op over rtl_tcp: the stock rtl_tcp
// protocol this package speaks has no bias-tee command, so a device
// reached this way needs the GPIO fallback in internal/dongle/biastee
// if it needs a bias tee at all.
func (d *RTLTCPDongle) EnableBiasTee(on bool) error {
	if on {
		return fmt.Errorf("rtl_tcp transport does not support bias-tee control; use a GPIO fallback")
	}
	return nil
}

// GainTable reports the tuner gain count rtl_tcp handed back on
// connect but not the gains themselves — the wire protocol only sends
// a count, never the table. When the server reports at least one gain
// step, this assumes the common E4000 tuner's table, the same way
// rtl_eeprom-less rtl_tcp clients assume a generic tuner; a count of
// zero means the server offered no gain steps at all, so nil is
// returned and NearestGain passes the requested gain through unchanged.
func (d *RTLTCPDongle) GainTable() []int32 {
	if d.sdr.Info.GainCount == 0 {
		return nil
	}
	return e4000GainTable
}

// ReadAsync pulls fixed-size blocks until ctx is cancelled, mirroring
// Receiver.Run's io.ReadFull loop in rtlamr but handing each block to
// cb instead of demodulating inline.
func (d *RTLTCPDongle) ReadAsync(ctx context.Context, blockLen int, cb func([]byte)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			d.sdr.Close()
		case <-done:
		}
	}()

	buf := make([]byte, blockLen)
	for {
		if _, err := io.ReadFull(&d.sdr, buf); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading rtl_tcp samples: %w", err)
		}
		cb(buf)
	}
}

func (d *RTLTCPDongle) Close() error {
	return d.sdr.Close()
}
