// Copyright 2024 The go-ember Authors
// This file is part of the go-ember library.
//
// The go-ember library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ember library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ember library. If not, see <http://www.gnu.org/licenses/>.

// Package debug interprets the logging and diagnostics related CLI flags.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/emberchain/go-ember/internal/flags"
	"github.com/emberchain/go-ember/log"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}
	logFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format to use (json|logfmt|terminal)",
		Category: flags.LoggingCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to a file",
		Category: flags.LoggingCategory,
	}
	logRotateFlag = &cli.BoolFlag{
		Name:     "log.rotate",
		Usage:    "Enables log file rotation",
		Category: flags.LoggingCategory,
	}
	logMaxSizeMBsFlag = &cli.IntFlag{
		Name:     "log.maxsize",
		Usage:    "Maximum size in MBs of a single log file",
		Value:    100,
		Category: flags.LoggingCategory,
	}
	logMaxBackupsFlag = &cli.IntFlag{
		Name:     "log.maxbackups",
		Usage:    "Maximum number of log files to retain",
		Value:    10,
		Category: flags.LoggingCategory,
	}
	logMaxAgeFlag = &cli.IntFlag{
		Name:     "log.maxage",
		Usage:    "Maximum number of days to retain a log file",
		Value:    30,
		Category: flags.LoggingCategory,
	}
	logCompressFlag = &cli.BoolFlag{
		Name:     "log.compress",
		Usage:    "Compress the log files",
		Value:    false,
		Category: flags.LoggingCategory,
	}
	pprofFlag = &cli.BoolFlag{
		Name:     "pprof",
		Usage:    "Enable the pprof HTTP server (also serves Prometheus metrics on /metrics)",
		Category: flags.LoggingCategory,
	}
	pprofPortFlag = &cli.IntFlag{
		Name:     "pprof.port",
		Usage:    "pprof HTTP server listening port",
		Value:    6060,
		Category: flags.LoggingCategory,
	}
	pprofAddrFlag = &cli.StringFlag{
		Name:     "pprof.addr",
		Usage:    "pprof HTTP server listening interface",
		Value:    "127.0.0.1",
		Category: flags.LoggingCategory,
	}
)

// Flags holds all command-line flags required for debugging.
var Flags = []cli.Flag{
	verbosityFlag,
	logFormatFlag,
	logFileFlag,
	logRotateFlag,
	logMaxSizeMBsFlag,
	logMaxBackupsFlag,
	logMaxAgeFlag,
	logCompressFlag,
	pprofFlag,
	pprofAddrFlag,
	pprofPortFlag,
}

var logOutputFile io.WriteCloser

// Setup initializes logging and the diagnostics server based on the CLI
// flags. It should be called as early as possible in the program.
func Setup(ctx *cli.Context) error {
	verbosity := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	format := ctx.String(logFormatFlag.Name)

	output, colored, err := openLogOutput(ctx)
	if err != nil {
		return err
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = log.JSONHandlerWithLevel(output, verbosity)
	case "logfmt":
		handler = log.LogfmtHandlerWithLevel(output, verbosity)
	case "", "terminal":
		format = "terminal"
		handler = log.TerminalHandlerWithLevel(output, verbosity, colored)
	default:
		return fmt.Errorf("unknown log format: %v", format)
	}
	log.SetDefault(log.NewLogger(handler))

	info := []interface{}{"format", format, "rotate", ctx.Bool(logRotateFlag.Name)}
	if file := ctx.String(logFileFlag.Name); file != "" {
		info = append(info, "location", file)
	}
	log.Info("Logging configured", info...)

	// Diagnostics server: pprof plus the Prometheus metrics endpoint.
	if ctx.Bool(pprofFlag.Name) {
		address := net.JoinHostPort(ctx.String(pprofAddrFlag.Name), strconv.Itoa(ctx.Int(pprofPortFlag.Name)))
		startDiagnosticsServer(address)
	}
	return nil
}

// openLogOutput assembles the log sink from the file and rotation flags.
// Logs always reach stderr; naming a file or enabling rotation adds a second
// sink. The bool result reports whether colored terminal output applies,
// which is only the case for the plain stderr sink.
func openLogOutput(ctx *cli.Context) (io.Writer, bool, error) {
	logFile := ctx.String(logFileFlag.Name)
	if logFile != "" {
		if err := ensureWritable(filepath.Dir(logFile)); err != nil {
			return nil, false, fmt.Errorf("log file location not usable: %v", err)
		}
	}
	switch {
	case ctx.Bool(logRotateFlag.Name):
		// With no file named, lumberjack writes <process>-lumberjack.log
		// under the temp directory.
		logOutputFile = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    ctx.Int(logMaxSizeMBsFlag.Name),
			MaxBackups: ctx.Int(logMaxBackupsFlag.Name),
			MaxAge:     ctx.Int(logMaxAgeFlag.Name),
			Compress:   ctx.Bool(logCompressFlag.Name),
		}
		return io.MultiWriter(os.Stderr, logOutputFile), false, nil
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, false, err
		}
		logOutputFile = f
		return io.MultiWriter(os.Stderr, f), false, nil
	default:
		if stderrIsTerminal() {
			return colorable.NewColorableStderr(), true, nil
		}
		return os.Stderr, false, nil
	}
}

func stderrIsTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// ensureWritable verifies the log directory exists and accepts new files
// before the first record is dropped into it.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".ember-writable")
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}

// Exit flushes and closes the log file sink, if any.
func Exit() {
	if logOutputFile != nil {
		logOutputFile.Close()
	}
}

func startDiagnosticsServer(address string) {
	http.Handle("/metrics", promhttp.Handler())
	log.Info("Starting diagnostics server", "addr", fmt.Sprintf("http://%s/debug/pprof", address))
	go func() {
		if err := http.ListenAndServe(address, nil); err != nil {
			log.Error("Failure in running diagnostics server", "err", err)
		}
	}()
}
