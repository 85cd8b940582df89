package query

import (
	"time"

	"kgrag/pkg/logger"
)

type TraceEventKind string

const (
	TraceEventSchema   TraceEventKind = "schema"
	TraceEventGenerate TraceEventKind = "generate"
	TraceEventExecute  TraceEventKind = "execute"
	TraceEventAnswer   TraceEventKind = "answer"
)

// TraceEvent describes one step of answering a question.
type TraceEvent struct {
	Kind TraceEventKind

	Cypher     string
	Records    int
	DurationMs int64
	Error      string
}

// Tracer is a sink for query tracing events.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

// LogTracer writes every event to the debug log.
type LogTracer struct{}

func (LogTracer) Record(event TraceEvent) {
	logger.Debug("Query step",
		"step", event.Kind,
		"records", event.Records,
		"duration_ms", event.DurationMs,
		"err", event.Error,
	)
}

func recordStep(t Tracer, kind TraceEventKind, start time.Time, fill func(*TraceEvent), err error) {
	if t == nil {
		return
	}
	ev := TraceEvent{Kind: kind, DurationMs: time.Since(start).Milliseconds()}
	if fill != nil {
		fill(&ev)
	}
	if err != nil {
		ev.Error = err.Error()
	}
	t.Record(ev)
}
