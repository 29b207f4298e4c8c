package event

import (
	"encoding/binary"
	"runtime"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies the event category a callsite belongs to.
type Kind uint8

const (
	// KindLog marks a callsite that emits log records.
	KindLog Kind = iota + 1
	// KindMetric marks a callsite that emits metric records.
	KindMetric
	// KindSpan marks a callsite that opens spans.
	KindSpan
)

func (k Kind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindMetric:
		return "metric"
	case KindSpan:
		return "span"
	default:
		return "unknown"
	}
}

// Level is the severity of a log callsite or record.
type Level uint8

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses a string level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Handle is an interned reference to a Callsite. A handle is only meaningful
// for the stream whose interning table issued it, and resolves through the
// Deps section of that stream's blocks.
type Handle uint32

// Callsite is the immutable static metadata for one instrumentation point.
// Create callsites once and reuse them for every event they describe; the
// fingerprint used for interning is computed at construction so the hot
// append path never hashes.
type Callsite struct {
	Kind  Kind
	Name  string
	File  string
	Line  uint32
	Level Level  // log callsites only
	Unit  string // metric callsites only

	fingerprint uint64
}

// NewCallsite builds a callsite with an explicit source location. Bridges
// that resolve locations from program counters use this directly; most code
// should prefer LogSite, MetricSite, or SpanSite.
func NewCallsite(kind Kind, name, file string, line uint32, level Level, unit string) *Callsite {
	c := &Callsite{
		Kind:  kind,
		Name:  name,
		File:  file,
		Line:  line,
		Level: level,
		Unit:  unit,
	}
	c.fingerprint = fingerprint(c)
	return c
}

// LogSite creates a log callsite at the caller's source location.
func LogSite(name string, level Level) *Callsite {
	file, line := caller()
	return NewCallsite(KindLog, name, file, line, level, "")
}

// MetricSite creates a metric callsite at the caller's source location.
// The unit is free-form and transmitted verbatim, e.g. "ms" or "{block}".
func MetricSite(name, unit string) *Callsite {
	file, line := caller()
	return NewCallsite(KindMetric, name, file, line, LevelInfo, unit)
}

// SpanSite creates a span callsite at the caller's source location.
func SpanSite(name string) *Callsite {
	file, line := caller()
	return NewCallsite(KindSpan, name, file, line, LevelInfo, "")
}

// Fingerprint returns the callsite's dedup key. Two callsites with equal
// fields share a fingerprint and intern to the same handle.
func (c *Callsite) Fingerprint() uint64 {
	return c.fingerprint
}

func fingerprint(c *Callsite) uint64 {
	d := xxhash.New()
	var scratch [8]byte
	scratch[0] = byte(c.Kind)
	scratch[1] = byte(c.Level)
	binary.LittleEndian.PutUint32(scratch[2:6], c.Line)
	d.Write(scratch[:6])
	d.WriteString(c.Name)
	d.Write(scratch[6:7]) // field separator
	d.WriteString(c.File)
	d.Write(scratch[6:7])
	d.WriteString(c.Unit)
	return d.Sum64()
}

func caller() (string, uint32) {
	// Skip caller and the *Site helper.
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown", 0
	}
	return file, uint32(line)
}
