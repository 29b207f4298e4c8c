package slogbridge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/recorder"
)

// Handler is a slog.Handler that emits through a tracewire core. Clones
// created by WithAttrs and WithGroup share one callsite cache.
type Handler struct {
	core   *recorder.Core
	sites  *siteCache
	attrs  []slog.Attr
	groups []string
}

// New creates a handler backed by the core.
func New(core *recorder.Core) *Handler {
	return &Handler{
		core:  core,
		sites: &siteCache{byPC: make(map[uintptr]*event.Callsite)},
	}
}

// Enabled reports whether records at the level would be emitted.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return eventLevel(level) >= h.core.MinLevel()
}

// Handle converts the record and emits it. Always returns nil: telemetry
// loss is never an application error.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	site := h.sites.resolve(r.PC, eventLevel(r.Level))

	msg := r.Message
	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		var b strings.Builder
		b.WriteString(msg)
		for _, a := range h.attrs {
			writeAttr(&b, a.Key, a.Value)
		}
		prefix := h.prefix()
		r.Attrs(func(a slog.Attr) bool {
			writeAttr(&b, prefix+a.Key, a.Value)
			return true
		})
		msg = b.String()
	}

	h.core.RecordLogAt(site, eventLevel(r.Level), msg, r.Time)
	return nil
}

// WithAttrs returns a handler that adds attrs to every record. Keys are
// qualified with the group path open at the time of the call.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	prefix := h.prefix()
	qualified := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		qualified[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	h2.attrs = append(h2.attrs[:len(h2.attrs):len(h2.attrs)], qualified...)
	return &h2
}

// WithGroup returns a handler that qualifies attr keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := *h
	h2.groups = append(h2.groups[:len(h2.groups):len(h2.groups)], name)
	return &h2
}

func (h *Handler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

func writeAttr(b *strings.Builder, key string, v slog.Value) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	fmt.Fprintf(b, "%v", v.Any())
}

func eventLevel(l slog.Level) event.Level {
	switch {
	case l < slog.LevelInfo:
		return event.LevelDebug
	case l < slog.LevelWarn:
		return event.LevelInfo
	case l < slog.LevelError:
		return event.LevelWarn
	default:
		return event.LevelError
	}
}

// siteCache memoizes callsites by program counter.
type siteCache struct {
	mu   sync.Mutex
	byPC map[uintptr]*event.Callsite
}

func (c *siteCache) resolve(pc uintptr, level event.Level) *event.Callsite {
	c.mu.Lock()
	defer c.mu.Unlock()
	if site, ok := c.byPC[pc]; ok {
		return site
	}

	name, file := "slog", "unknown"
	var line uint32
	if pc != 0 {
		frames := runtime.CallersFrames([]uintptr{pc})
		f, _ := frames.Next()
		if f.Function != "" {
			name = f.Function
		}
		if f.File != "" {
			file = f.File
		}
		line = uint32(f.Line)
	}
	site := event.NewCallsite(event.KindLog, name, file, line, level, "")
	c.byPC[pc] = site
	return site
}
