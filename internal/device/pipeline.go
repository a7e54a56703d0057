package device

import (
	"math/cmplx"

	"acarsgo/internal/acars"

	"github.com/charmbracelet/log"
)

// dcOffset is the dongle's empirically-measured DC bias; 127.37 not
// 128, fixed by the protocol per §4.1.
const dcOffset = 127.37

// Device owns one dongle's channel set and runs the byte-to-magnitude
// pipeline of §4.1. Every method here is called from exactly one
// goroutine — the dongle's asynchronous read callback — so nothing
// inside is synchronized (§5).
type Device struct {
	Serial   string
	Config   Config
	CenterHz int64
	Channels []*acars.Channel
	Logger   *log.Logger
}

// NewDevice validates cfg and constructs one Channel per configured
// frequency, per §4.4.
func NewDevice(cfg Config, logger *log.Logger) (*Device, error) {
	valid, err := cfg.Validated()
	if err != nil {
		return nil, err
	}

	centerHz := acars.CenterFreqHz(valid.Frequencies)
	channels := make([]*acars.Channel, len(valid.Frequencies))
	for i, f := range valid.Frequencies {
		channels[i] = acars.NewChannel(i, f, centerHz, valid.M)
	}

	if logger != nil {
		logger = logger.With("device", valid.Serial)
	}

	return &Device{
		Serial:   valid.Serial,
		Config:   valid,
		CenterHz: centerHz,
		Channels: channels,
		Logger:   logger,
	}, nil
}

// SetSink installs the callback every channel delivers assembled
// messages to.
func (d *Device) SetSink(sink func(acars.AssembledMessage)) {
	for _, ch := range d.Channels {
		ch.SetSink(sink)
	}
}

// ProcessBytes implements the §4.1 contract: convert one callback's
// worth of interleaved I/Q bytes into per-channel magnitude samples,
// then demodulate each channel once the buffer is full.
func (d *Device) ProcessBytes(buf []byte) error {
	m := d.Config.M
	expected := 2 * acars.RTLOUTBUFSZ * m
	if len(buf) != expected {
		return &ShortBufferError{Serial: d.Serial, Got: len(buf), Expected: expected}
	}

	var vb [acars.WindowLen]complex128

	for sample := 0; sample < acars.RTLOUTBUFSZ; sample++ {
		base := sample * 2 * m
		for i := 0; i < m; i++ {
			iComp := float64(buf[base+2*i]) - dcOffset
			qComp := float64(buf[base+2*i+1]) - dcOffset
			vb[i] = complex(iComp, qComp)
		}

		for _, ch := range d.Channels {
			var acc complex128
			for i := 0; i < m; i++ {
				acc += vb[i] * ch.Window[i]
			}
			ch.StoreMagnitude(sample, float32(cmplx.Abs(acc)))
		}
	}

	for _, ch := range d.Channels {
		ch.Demodulate(acars.RTLOUTBUFSZ)
	}
	return nil
}
