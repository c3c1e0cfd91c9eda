package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Paintersrp/spawny/internal/engine"
)

// LogFormat selects how engine events are rendered.
type LogFormat string

const (
	LogFormatAuto LogFormat = "auto"
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// ParseLogFormat validates a user supplied format name.
func ParseLogFormat(value string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(value))) {
	case "", LogFormatAuto:
		return LogFormatAuto, nil
	case LogFormatText:
		return LogFormatText, nil
	case LogFormatJSON:
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format %q (want auto, text or json)", value)
	}
}

// ResolveLogFormat turns auto into text for terminals and json otherwise.
func ResolveLogFormat(format LogFormat, w io.Writer) LogFormat {
	if format != LogFormatAuto && format != "" {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return LogFormatText
	}
	return LogFormatJSON
}

// LogRecord represents a structured log event ready for JSON encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Run       string    `json:"run"`
	Chain     string    `json:"chain,omitempty"`
	Step      int       `json:"step,omitempty"`
	Program   string    `json:"program,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Level     string    `json:"level"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason,omitempty"`
	Message   string    `json:"msg"`
}

// NewLogRecord converts an engine event into a structured log record.
func NewLogRecord(event engine.Event) LogRecord {
	level := event.Level
	if level == "" {
		level = "info"
	}
	message := event.Message
	if message == "" && event.Err != nil {
		message = event.Err.Error()
	}
	return LogRecord{
		Timestamp: event.Timestamp,
		Run:       event.Run,
		Chain:     event.Chain,
		Step:      event.Step,
		Program:   event.Program,
		PID:       event.PID,
		Level:     level,
		Type:      string(event.Type),
		Reason:    event.Reason,
		Message:   RedactSecrets(message),
	}
}

// EncodeLogEvent encodes a log event to JSON, reporting errors to stderr if needed.
func EncodeLogEvent(enc *json.Encoder, stderr io.Writer, event engine.Event) {
	if enc == nil {
		return
	}
	record := NewLogRecord(event)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}

// FormatEvent renders an event as a single human readable line.
func FormatEvent(event engine.Event) string {
	record := NewLogRecord(event)

	var b strings.Builder
	b.WriteString("spawny: ")
	if record.Level != "info" {
		b.WriteString(record.Level)
		b.WriteString(": ")
	}
	if record.Chain != "" {
		if event.Steps > 0 {
			fmt.Fprintf(&b, "[%s %d/%d] ", record.Chain, record.Step, event.Steps)
		} else {
			fmt.Fprintf(&b, "[%s] ", record.Chain)
		}
	}
	b.WriteString(record.Message)
	return b.String()
}

// EventPrinter writes engine events to a stream in the selected format.
type EventPrinter struct {
	w      io.Writer
	format LogFormat
	enc    *json.Encoder
}

// NewEventPrinter constructs a printer; auto is resolved against w.
func NewEventPrinter(w io.Writer, format LogFormat) *EventPrinter {
	p := &EventPrinter{w: w, format: ResolveLogFormat(format, w)}
	if p.format == LogFormatJSON {
		p.enc = json.NewEncoder(w)
	}
	return p
}

// Format reports the resolved output format.
func (p *EventPrinter) Format() LogFormat {
	return p.format
}

// Print renders a single event.
func (p *EventPrinter) Print(event engine.Event) {
	if p.enc != nil {
		EncodeLogEvent(p.enc, p.w, event)
		return
	}
	fmt.Fprintln(p.w, FormatEvent(event))
}
