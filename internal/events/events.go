// Package events provides the structured, leveled event stream emitted by
// toolchain resolution and build execution. Components emit events instead of
// formatting log strings, so sinks (and tests) can act on the fields directly.
package events

import (
	"sort"
	"strings"

	"github.com/qiniu/x/log"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Event is one observation: a dotted name plus structured fields.
type Event struct {
	Level  Level
	Name   string
	Fields map[string]string
}

// String renders the event as "name key=value ..." with sorted keys.
func (e Event) String() string {
	if len(e.Fields) == 0 {
		return e.Name
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(e.Name)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// Sink receives events. Implementations must not retain the Fields map.
type Sink interface {
	Emit(Event)
}

// Ev builds an event from alternating key/value pairs.
func Ev(level Level, name string, kv ...string) Event {
	e := Event{Level: level, Name: name}
	if len(kv) > 0 {
		e.Fields = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Fields[kv[i]] = kv[i+1]
		}
	}
	return e
}

// To normalizes a possibly-nil sink to the process log sink.
func To(s Sink) Sink {
	if s == nil {
		return Log
	}
	return s
}

// LogSink forwards events to the process logger.
type LogSink struct{}

func (LogSink) Emit(e Event) {
	switch e.Level {
	case Debug:
		log.Debug(e.String())
	case Info:
		log.Info(e.String())
	case Warn:
		log.Warn(e.String())
	default:
		log.Error(e.String())
	}
}

// Log is the default sink, writing through qiniu/x/log.
var Log Sink = LogSink{}

// Recorder is a sink that collects events, for tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// Find returns the first recorded event with the given name.
func (r *Recorder) Find(name string) (Event, bool) {
	for _, e := range r.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}
