package config

import (
	"strconv"
	"strings"

	"acarsgo/internal/device"
)

// GlobalConfig is the fully-resolved configuration the rest of the
// program consumes: one device.Config per configured SDR plus the
// output/logging surface of §6.
type GlobalConfig struct {
	OutputConsole bool
	OutputFile    string
	OutputTCP     string
	Verbosity     int
	Devices       []device.Config
}

// Build merges CLI flags over an optional YAML file. The output file
// and TCP address come from the CLI when non-empty, else from YAML;
// verbosity is the larger of the two; the console flag comes from the
// CLI only (YAML's output_console is not read). Devices are taken per
// index: a CLI device (its serial set) replaces the YAML device at that
// index whole, with no per-field merge.
func Build(f *Flags, y *YAMLConfig) (GlobalConfig, error) {
	cfg := GlobalConfig{
		OutputConsole: f.OutputConsole,
		OutputFile:    firstNonEmpty(f.OutputFile, y.OutputFile),
		OutputTCP:     firstNonEmpty(f.OutputTCP, y.OutputTCP),
		Verbosity:     maxInt(f.Verbosity, y.Verbosity),
	}

	yamlByIndex := make(map[int]YAMLDevice)
	for i, d := range y.Devices {
		yamlByIndex[i] = d
	}

	for i := 0; i < MaxDevices; i++ {
		if f.set[i] {
			dc, err := deviceConfigFromFlags(f.devices[i])
			if err != nil {
				return GlobalConfig{}, err
			}
			cfg.Devices = append(cfg.Devices, dc)
			continue
		}
		if yd, ok := yamlByIndex[i]; ok && yd.Serial != "" {
			dc, err := deviceConfigFromYAML(yd)
			if err != nil {
				return GlobalConfig{}, err
			}
			cfg.Devices = append(cfg.Devices, dc)
		}
	}

	return cfg, nil
}

func deviceConfigFromFlags(d deviceFlags) (device.Config, error) {
	freqs, err := parseFreqs(d.freqs)
	if err != nil {
		return device.Config{}, err
	}
	kind, err := parseDecoder(d.decoder)
	if err != nil {
		return device.Config{}, err
	}
	return device.Config{
		Serial:      d.serial,
		RemoteAddr:  d.remote,
		PPM:         d.ppm,
		GainTenths:  d.gain,
		BiasTee:     d.biasTee,
		M:           d.mult,
		Frequencies: freqs,
		Decoder:     kind,
	}, nil
}

func deviceConfigFromYAML(d YAMLDevice) (device.Config, error) {
	kind, err := parseDecoder(d.Decoder)
	if err != nil {
		return device.Config{}, err
	}
	return device.Config{
		Serial:      d.Serial,
		RemoteAddr:  d.Remote,
		PPM:         d.PPM,
		GainTenths:  d.Gain,
		BiasTee:     d.BiasTee,
		M:           d.Mult,
		Frequencies: d.Frequencies,
		Decoder:     kind,
	}, nil
}

func parseFreqs(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseDecoder(s string) (device.DecoderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "acars":
		return device.DecoderACARS, nil
	case "vdl2", "vdlm2":
		return device.DecoderVDL2, nil
	case "hfdl":
		return device.DecoderHFDL, nil
	default:
		return 0, &InvalidDecoderError{Value: s}
	}
}

// InvalidDecoderError is returned for an unrecognized decoder string.
type InvalidDecoderError struct {
	Value string
}

func (e *InvalidDecoderError) Error() string {
	return "invalid decoder type: " + e.Value
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
