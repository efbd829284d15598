// Package logger configures log/slog for keyed-array programs and hands out
// context-scoped loggers.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/amp-labs/keyed-array/envutil"
)

// Default subsystem name, set by ConfigureLogging.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex serializes changes to the process-wide default logger.
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

// Options is used to configure logging.
type Options struct {
	Subsystem   string
	JSON        bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer

	// Extra handlers receive every record alongside the primary handler.
	Extra []slog.Handler
}

// Option is a functional option for ConfigureLogging.
type Option func(*Options)

// ErrInvalidLogOutput is returned when LOG_OUTPUT names an unknown destination.
var ErrInvalidLogOutput = errors.New("invalid log output")

// WithOutput overrides the destination chosen from the environment.
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

// WithHandler also sends records to h. A nil h is ignored.
func WithHandler(h slog.Handler) Option {
	return func(o *Options) {
		if h != nil {
			o.Extra = append(o.Extra, h)
		}
	}
}

// ConfigureLoggingWithOptions installs a text or JSON handler as the slog
// default and redirects the legacy log package into it.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.MinLevel}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	if len(opts.Extra) > 0 {
		handler = newFanout(opts.MinLevel, append([]slog.Handler{handler}, opts.Extra...)...)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	subsystem.Store(opts.Subsystem)

	return logger
}

// ConfigureLogging configures logging from LOG_JSON, LOG_LEVEL,
// LEGACY_LOG_LEVEL and LOG_OUTPUT (stdout or stderr).
func ConfigureLogging(app string, opts ...Option) (*slog.Logger, error) {
	output, err := envutil.Map(envutil.String("LOG_OUTPUT"), func(outName string) (io.Writer, error) {
		switch outName {
		case "stdout":
			return os.Stdout, nil
		case "stderr":
			return os.Stderr, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidLogOutput, outName)
		}
	}).WithDefault(os.Stderr).Value()
	if err != nil {
		return nil, err
	}

	options := Options{
		Subsystem:   app,
		JSON:        envutil.Bool("LOG_JSON", envutil.Default(false)).ValueOrElse(false),
		MinLevel:    envutil.SlogLevel("LOG_LEVEL", envutil.Default(slog.LevelInfo)).ValueOrElse(slog.LevelInfo),
		LegacyLevel: envutil.SlogLevel("LEGACY_LOG_LEVEL", envutil.Default(slog.LevelInfo)).ValueOrElse(slog.LevelInfo),
		Output:      output,
	}

	for _, o := range opts {
		o(&options)
	}

	return ConfigureLoggingWithOptions(options), nil
}

// WithMuted suppresses all logging done through Get for this context.
func WithMuted(ctx context.Context, muted bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("mute"), muted)
}

func isMuted(ctx context.Context) bool {
	muted, ok := ctx.Value(contextKey("mute")).(bool)

	return ok && muted
}

// WithSubsystem overrides the subsystem attribute for this context.
func WithSubsystem(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("subsystem"), name)
}

// GetSubsystem returns the context's subsystem, or the configured default.
func GetSubsystem(ctx context.Context) string {
	if ctx != nil {
		if name, ok := ctx.Value(contextKey("subsystem")).(string); ok {
			return name
		}
	}

	name, _ := subsystem.Load().(string)

	return name
}

// WithLogger makes Get return base (plus context attributes) instead of the
// slog default. Tests use it to route logs to testing.T.
func WithLogger(ctx context.Context, base *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("logger"), base)
}

// Get returns the logger for ctx, tagged with its subsystem.
func Get(ctx context.Context) *slog.Logger {
	if ctx == nil {
		ctx = context.Background()
	}

	if isMuted(ctx) {
		return slog.New(slog.DiscardHandler)
	}

	base, ok := ctx.Value(contextKey("logger")).(*slog.Logger)
	if !ok || base == nil {
		base = slog.Default()
	}

	if name := GetSubsystem(ctx); name != "" {
		return base.With("subsystem", name)
	}

	return base
}
