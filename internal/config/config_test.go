package config

import (
	"testing"

	"acarsgo/internal/device"

	"github.com/stretchr/testify/require"
)

func TestParseArgsAndBuildSingleDevice(t *testing.T) {
	f, err := ParseArgs([]string{
		"--sdr1-serial=00000001",
		"--sdr1-gain=300",
		"--sdr1-freqs=130.025,131.55",
		"-vv",
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.Verbosity)

	cfg, err := Build(f, &YAMLConfig{})
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 1)
	require.Equal(t, "00000001", cfg.Devices[0].Serial)
	require.Equal(t, []float64{130.025, 131.55}, cfg.Devices[0].Frequencies)
	require.Equal(t, device.DecoderACARS, cfg.Devices[0].Decoder)
}

func TestBuildFallsBackToYAMLDevice(t *testing.T) {
	f, err := ParseArgs(nil)
	require.NoError(t, err)

	y := &YAMLConfig{
		Devices: []YAMLDevice{
			{Serial: "yaml-1", Frequencies: []float64{131.0}, Decoder: "ACARS"},
		},
	}
	cfg, err := Build(f, y)
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 1)
	require.Equal(t, "yaml-1", cfg.Devices[0].Serial)
}

func TestCLIDeviceOverridesYAMLAtSameIndex(t *testing.T) {
	f, err := ParseArgs([]string{"--sdr1-serial=cli-1", "--sdr1-freqs=131.0"})
	require.NoError(t, err)

	y := &YAMLConfig{
		Devices: []YAMLDevice{
			{Serial: "yaml-1", Frequencies: []float64{131.0}},
		},
	}
	cfg, err := Build(f, y)
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 1)
	require.Equal(t, "cli-1", cfg.Devices[0].Serial)
}

func TestParseDecoderRejectsUnknown(t *testing.T) {
	_, err := parseDecoder("doppler")
	require.Error(t, err)
	require.IsType(t, &InvalidDecoderError{}, err)
}
