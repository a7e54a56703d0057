package dongle

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// RTL2832U USB identifiers, the ubiquitous "RTL-SDR" chipset.
const (
	rtlVendorID  = 0x0bda
	rtlProductID = 0x2838
)

// RTL2832U bulk-transfer vendor commands, addressed the way
// pkg/yardstick/device.go addresses its EP0 vendor commands: a
// request/value/index triple over Control().
const (
	cmdSetFreq       = 0x01
	cmdSetSampleRate = 0x02
	cmdSetGainMode   = 0x03
	cmdSetGain       = 0x04
	cmdSetFreqCorr   = 0x05
	cmdSetBiasTee    = 0x0e

	usbEndpointIn = 1

	// e4000GainTable holds the tuner's supported gain steps in tenths
	// of dB, the table NearestGain snaps requested gains onto.
)

var e4000GainTable = []int32{
	-10, 15, 40, 65, 90, 115, 140, 165, 190, 215,
	240, 290, 340, 420, 430, 450, 470, 490,
}

// USBDongle drives an RTL-SDR directly over USB with
// github.com/google/gousb, the same library and open/claim/endpoint
// sequence pkg/yardstick/device.go uses for the YardStick One.
type USBDongle struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	iface  *gousb.Interface
	epIn   *gousb.InEndpoint
	serial string
}

// OpenUSB enumerates RTL2832U devices and opens the one matching
// serial, or the first one found if serial is empty.
func OpenUSB(serial string) (*USBDongle, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(rtlVendorID) && desc.Product == gousb.ID(rtlProductID)
	})
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("enumerating RTL-SDR USB devices: %w", err)
	}

	var chosen *gousb.Device
	for _, d := range devs {
		s, _ := d.SerialNumber()
		if chosen == nil && (serial == "" || s == serial) {
			chosen = d
			continue
		}
		d.Close()
	}
	if chosen == nil {
		ctx.Close()
		return nil, &NotFoundError{Serial: serial}
	}

	got, _ := chosen.SerialNumber()
	chosen.SetAutoDetach(true)

	cfg, err := chosen.Config(1)
	if err != nil {
		chosen.Close()
		ctx.Close()
		return nil, fmt.Errorf("getting USB configuration: %w", err)
	}
	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		chosen.Close()
		ctx.Close()
		return nil, fmt.Errorf("claiming USB interface: %w", err)
	}
	epIn, err := iface.InEndpoint(usbEndpointIn)
	if err != nil {
		iface.Close()
		cfg.Close()
		chosen.Close()
		ctx.Close()
		return nil, fmt.Errorf("opening bulk IN endpoint: %w", err)
	}

	return &USBDongle{ctx: ctx, dev: chosen, cfg: cfg, iface: iface, epIn: epIn, serial: got}, nil
}

func (d *USBDongle) Serial() string { return d.serial }

func (d *USBDongle) control(req uint8, value, index uint16) error {
	_, err := d.dev.Control(0x40, req, value, index, nil)
	return err
}

func (d *USBDongle) SetGain(tenthsDB int32) error {
	if err := d.control(cmdSetGainMode, 1, 0); err != nil {
		return fmt.Errorf("enabling manual gain: %w", err)
	}
	return d.control(cmdSetGain, uint16(NearestGain(d.GainTable(), tenthsDB)), 0)
}

func (d *USBDongle) SetGainAuto() error {
	return d.control(cmdSetGainMode, 0, 0)
}

func (d *USBDongle) SetPPM(ppm int32) error {
	return d.control(cmdSetFreqCorr, uint16(ppm), 0)
}

func (d *USBDongle) SetCenterFreq(hz uint32) error {
	return d.control(cmdSetFreq, uint16(hz>>16), uint16(hz))
}

func (d *USBDongle) SetSampleRate(hz uint32) error {
	return d.control(cmdSetSampleRate, uint16(hz>>16), uint16(hz))
}

func (d *USBDongle) EnableBiasTee(on bool) error {
	v := uint16(0)
	if on {
		v = 1
	}
	return d.control(cmdSetBiasTee, v, 0)
}

func (d *USBDongle) GainTable() []int32 {
	return e4000GainTable
}

// ReadAsync pulls fixed-size blocks off the bulk IN endpoint until ctx
// is cancelled, the way pkg/yardstick/device.go's drainReceiveBuffer
// and RecoverUSB both use epIn.ReadContext in a loop.
func (d *USBDongle) ReadAsync(ctx context.Context, blockLen int, cb func([]byte)) error {
	buf := make([]byte, blockLen)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := d.epIn.ReadContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading USB samples: %w", err)
		}
		if n < len(buf) {
			continue
		}
		cb(buf)
	}
}

func (d *USBDongle) Close() error {
	if d.iface != nil {
		d.iface.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	var err error
	if d.dev != nil {
		err = d.dev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
	return err
}
