package config

import (
	"github.com/spf13/pflag"
)

// MaxDevices bounds the per-device indexed flag surface at 8, mirroring
// acars-oxide's sdr1..sdr8 OxideInput fields.
const MaxDevices = 8

type deviceFlags struct {
	serial  string
	remote  string
	ppm     int32
	gain    int32
	biasTee bool
	mult    int
	freqs   string
	decoder string
}

// Flags is the parsed CLI surface, mirroring acars-oxide's OxideInput
// one field at a time.
type Flags struct {
	ConfigFile    string
	OutputConsole bool
	OutputFile    string
	OutputTCP     string
	Verbosity     int

	devices [MaxDevices]deviceFlags
	set     [MaxDevices]bool
}

// ParseArgs builds the pflag.FlagSet the way cmd/direwolf/main.go in
// the teacher wires up pflag, and parses args (normally os.Args[1:]).
func ParseArgs(args []string) (*Flags, error) {
	fs := pflag.NewFlagSet("acarsgo", pflag.ContinueOnError)
	f := &Flags{}

	fs.StringVar(&f.ConfigFile, "config", "", "optional YAML config file")
	fs.BoolVar(&f.OutputConsole, "output-console", true, "print assembled messages to stdout")
	fs.StringVar(&f.OutputFile, "output-file", "", "dated log file pattern, e.g. acars-%Y%m%d.log")
	fs.StringVar(&f.OutputTCP, "output-tcp", "", "TCP broadcast address to listen on, e.g. :5550")
	fs.CountVarP(&f.Verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	for i := 0; i < MaxDevices; i++ {
		n := i + 1
		d := &f.devices[i]
		prefix := fmtPrefix(n)
		fs.StringVar(&d.serial, prefix+"serial", "", "serial number of SDR "+itoa(n))
		fs.StringVar(&d.remote, prefix+"remote", "", "rtl_tcp host:port for SDR "+itoa(n)+" (empty = direct USB)")
		fs.Int32Var(&d.ppm, prefix+"ppm", 0, "PPM correction for SDR "+itoa(n))
		fs.Int32Var(&d.gain, prefix+"gain", 0, "gain in tenths of dB for SDR "+itoa(n)+" (>500 = AGC)")
		fs.BoolVar(&d.biasTee, prefix+"biastee", false, "enable bias tee on SDR "+itoa(n))
		fs.IntVar(&d.mult, prefix+"mult", 0, "oversampling multiplier (160 or 192) for SDR "+itoa(n))
		fs.StringVar(&d.freqs, prefix+"freqs", "", "comma-separated channel frequencies in MHz for SDR "+itoa(n))
		fs.StringVar(&d.decoder, prefix+"decoding-type", "acars", "decoder type for SDR "+itoa(n)+" (acars, vdl2, hfdl)")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for i := range f.devices {
		f.set[i] = f.devices[i].serial != ""
	}

	return f, nil
}

func fmtPrefix(n int) string {
	return "sdr" + itoa(n) + "-"
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
