// Command acarsgo scans one or more RTL-SDR dongles for ACARS traffic
// and prints, logs, or broadcasts assembled messages. See SPEC_FULL.md
// for the full configuration surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"acarsgo/internal/config"
	"acarsgo/internal/output"
	"acarsgo/internal/scanner"

	"github.com/charmbracelet/log"
)

// Exit codes per §6/§7.
const (
	exitOK          = 0
	exitConfigError = 1
	exitNoDevices   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := config.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parsing flags:", err)
		return exitConfigError
	}

	yamlCfg, err := config.LoadYAML(flags.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config file:", err)
		return exitConfigError
	}

	globalCfg, err := config.Build(flags, yamlCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return exitConfigError
	}
	if len(globalCfg.Devices) == 0 {
		fmt.Fprintln(os.Stderr, "no devices configured")
		return exitConfigError
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: verbosityToLevel(globalCfg.Verbosity)})

	sinks, err := buildSinks(globalCfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuring output:", err)
		return exitConfigError
	}
	fanout := output.NewFanout(sinks...)
	defer fanout.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := scanner.New(logger, fanout)
	if err := s.Run(ctx, globalCfg.Devices); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var noDevices *scanner.NoDevicesOpenedError
		if errors.As(err, &noDevices) {
			return exitNoDevices
		}
		return exitConfigError
	}

	return exitOK
}

func verbosityToLevel(v int) log.Level {
	switch {
	case v >= 2:
		return log.DebugLevel
	case v == 1:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

func buildSinks(cfg config.GlobalConfig, logger *log.Logger) ([]output.Sink, error) {
	var sinks []output.Sink
	if cfg.OutputConsole {
		sinks = append(sinks, output.NewConsoleSink(log.NewWithOptions(os.Stdout, log.Options{Level: log.InfoLevel})))
	}
	if cfg.OutputFile != "" {
		dir, pattern := filepath.Split(cfg.OutputFile)
		if dir == "" {
			dir = "."
		}
		fs, err := output.NewFileSink(dir, pattern, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if cfg.OutputTCP != "" {
		ts, err := output.NewTCPSink(cfg.OutputTCP, "acarsgo", logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ts)
	}
	return sinks, nil
}
