// Package script runs a program's main function with configured logging,
// interrupt handling and exit codes.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/amp-labs/keyed-array/envutil"
	"github.com/amp-labs/keyed-array/logger"
	"github.com/amp-labs/keyed-array/spans"
	"github.com/amp-labs/keyed-array/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

// Option is a function that configures a Script.
type Option func(script *Script)

// Exit returns an error that makes the script exit with code without logging.
func Exit(code int) error {
	return &exitError{
		code: code,
	}
}

// ExitWithError returns an error that makes the script log err and exit with 1.
func ExitWithError(err error) error {
	return &exitError{
		err:  err,
		code: 1,
	}
}

type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string {
	msg := "exit " + strconv.Itoa(e.code)

	if e.err != nil {
		return msg + ": " + e.err.Error()
	}

	return msg
}

func (e *exitError) Unwrap() error {
	return e.err
}

// LogLevel sets the minimum log level.
func LogLevel(lvl slog.Level) Option {
	return func(script *Script) {
		script.loggerOpts = append(script.loggerOpts, func(options *logger.Options) {
			options.MinLevel = lvl
		})
	}
}

// LogOutput sets the log destination.
func LogOutput(writer io.Writer) Option {
	return func(script *Script) {
		script.loggerOpts = append(script.loggerOpts, logger.WithOutput(writer))
	}
}

// Script is a runnable program.
type Script struct {
	name       string
	loggerOpts []logger.Option
}

// New creates a Script called scriptName.
func New(scriptName string, opts ...Option) *Script {
	script := &Script{
		name: scriptName,
	}

	for _, opt := range opts {
		opt(script)
	}

	return script
}

// Run calls f and exits the process with its code. The context passed to f
// is canceled on interrupt and carries the logger and an OpenTelemetry tracer.
func (r *Script) Run(f func(ctx context.Context) error) {
	os.Exit(run(r.name, f, r.loggerOpts...))
}

func run(scriptName string, callback func(ctx context.Context) error, opts ...logger.Option) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log, err := logger.ConfigureLogging(scriptName, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: configuring logging: %v\n", scriptName, err)

		return 1
	}

	ctx = logger.WithLogger(ctx, log)

	cfg, err := telemetry.LoadConfigFromEnv(envutil.String("KEYEDARRAY_ENV", envutil.Default("local")).ValueOrElse("local"))
	if err != nil {
		log.Error("loading telemetry config", "error", err)

		return 1
	}

	if err := telemetry.Initialize(ctx, cfg); err != nil {
		log.Error("initializing telemetry", "error", err)

		return 1
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()

		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutting down telemetry", "error", err)
		}
	}()

	if bridge := telemetry.LogHandler(scriptName); bridge != nil {
		log, err = logger.ConfigureLogging(scriptName, append(opts, logger.WithHandler(bridge))...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: configuring logging: %v\n", scriptName, err)

			return 1
		}

		ctx = logger.WithLogger(ctx, log)
	}

	ctx = spans.WithTracer(ctx, telemetry.Tracer(scriptName))

	if callback == nil {
		log.Error("callback is nil")

		return 1
	}

	err = callback(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError

	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			log.Error("error running "+scriptName, "error", exitErr.err)
		}

		return exitErr.code
	}

	log.Error("error running "+scriptName, "error", err)

	return 1
}
