package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"burnish/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options. Format is either
// "console" (human-oriented key=value lines) or "json".
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	sink, err := openSink(opts.OutputPaths, opts.ErrorOutputPaths)
	if err != nil {
		return nil, err
	}

	// Caller locations only matter when someone is actively debugging.
	withCaller := opts.Development || level <= slog.LevelDebug

	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		return slog.New(&consoleHandler{out: sink, min: level, withCaller: withCaller}), nil
	case "json":
		return slog.New(newJSONHandler(sink, level, withCaller)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a logger writing to stdout and, when a log directory
// is configured, to <log_dir>/burnish.log.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	opts := Options{Level: "info", Format: "console", OutputPaths: []string{"stdout"}, ErrorOutputPaths: []string{"stderr"}}
	if cfg == nil {
		return New(opts)
	}
	opts.Level = cfg.Logging.Level
	opts.Format = cfg.Logging.Format
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logPath := filepath.Join(cfg.Paths.LogDir, "burnish.log")
		opts.OutputPaths = append(opts.OutputPaths, logPath)
		opts.ErrorOutputPaths = append(opts.ErrorOutputPaths, logPath)
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openSink opens every distinct destination across both path lists and fans
// writes out to all of them. "stdout" and "stderr" name the process streams;
// anything else is an append-mode file.
func openSink(paths ...[]string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	for _, list := range paths {
		for _, path := range list {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}

			switch path {
			case "stdout":
				writers = append(writers, os.Stdout)
			case "stderr":
				writers = append(writers, os.Stderr)
			default:
				if dir := filepath.Dir(path); dir != "." && dir != "" {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return nil, fmt.Errorf("ensure log directory: %w", err)
					}
				}
				file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
				if err != nil {
					return nil, fmt.Errorf("open log file %s: %w", path, err)
				}
				writers = append(writers, file)
			}
		}
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func newJSONHandler(w io.Writer, level slog.Level, withCaller bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: withCaller,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
				}
			}
			return attr
		},
	})
}

// consoleHandler renders records as
//
//	2026-01-02T15:04:05Z INFO component: message key=value ...
//
// The component attribute is promoted into the message prefix rather than
// repeated in the key=value tail. Bound attrs from WithAttrs are flattened
// once, at bind time.
type consoleHandler struct {
	out        io.Writer
	min        slog.Level
	withCaller bool
	bound      []boundAttr
	groups     []string

	mu sync.Mutex
}

type boundAttr struct {
	key   string
	value slog.Value
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.child()
	for _, attr := range attrs {
		next.bound = flattenInto(next.bound, h.groups, attr)
	}
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	next := h.child()
	if name != "" {
		next.groups = append(next.groups, name)
	}
	return next
}

func (h *consoleHandler) child() *consoleHandler {
	return &consoleHandler{
		out:        h.out,
		min:        h.min,
		withCaller: h.withCaller,
		bound:      append([]boundAttr(nil), h.bound...),
		groups:     append([]string(nil), h.groups...),
	}
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := append([]boundAttr(nil), h.bound...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = flattenInto(attrs, h.groups, attr)
		return true
	})

	component := ""
	tail := attrs[:0]
	for _, attr := range attrs {
		if attr.key == FieldComponent && component == "" {
			component = plainString(attr.value)
			continue
		}
		tail = append(tail, attr)
	}

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(when.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	buf.WriteByte(' ')
	if component != "" {
		buf.WriteString(component)
		buf.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if h.withCaller {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, attr := range tail {
		if attr.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(attr.key)
		buf.WriteByte('=')
		buf.WriteString(renderValue(attr.value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

// flattenInto appends attr (recursing through groups) to dst with dotted
// group prefixes.
func flattenInto(dst []boundAttr, prefix []string, attr slog.Attr) []boundAttr {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = flattenInto(dst, next, member)
		}
		return dst
	}
	key := attr.Key
	if len(prefix) > 0 && key != "" {
		key = strings.Join(prefix, ".") + "." + key
	} else if len(prefix) > 0 {
		key = strings.Join(prefix, ".")
	}
	return append(dst, boundAttr{key: key, value: attr.Value})
}

func plainString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return v.String()
	}
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return renderValue(v)
}

func renderValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
