// Package diag routes engine diagnostics to the host's diagnostic channel.
//
// All producer/consumer orchestration reports through one Reporter sink so
// host tooling renders warnings and errors uniformly. A Bag collects
// diagnostics for inspection after a pass; a LogReporter bridges to the
// structured logger; Multi fans out to several sinks at once.
package diag

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/uber/crumb/pkg/errors"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	// SevError is for error diagnostics.
	SevError
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Diagnostic is one message emitted by the engine, associated with the
// offending element when known.
type Diagnostic struct {
	Severity Severity
	Code     errors.Code
	Element  string // qualified name of the related element, if any
	Message  string
}

// Reporter is the sink diagnostics flow through. Implementations must not
// abort the pass; severity handling is up to the host.
type Reporter interface {
	Report(d Diagnostic)
}

// Errorf reports an error diagnostic tied to an element.
func Errorf(r Reporter, code errors.Code, element, format string, args ...any) {
	report(r, SevError, code, element, format, args...)
}

// Warnf reports a warning diagnostic tied to an element (which may be empty).
func Warnf(r Reporter, code errors.Code, element, format string, args ...any) {
	report(r, SevWarning, code, element, format, args...)
}

// Infof reports an informational diagnostic.
func Infof(r Reporter, code errors.Code, element, format string, args ...any) {
	report(r, SevInfo, code, element, format, args...)
}

func report(r Reporter, sev Severity, code errors.Code, element, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(Diagnostic{
		Severity: sev,
		Code:     code,
		Element:  element,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Nop is a Reporter that discards everything.
type Nop struct{}

// Report discards the diagnostic.
func (Nop) Report(Diagnostic) {}

// LogReporter writes diagnostics to a structured logger.
type LogReporter struct {
	Logger *log.Logger
}

// NewLogReporter creates a reporter backed by logger.
// A nil logger falls back to log.Default().
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogReporter{Logger: logger}
}

// Report logs the diagnostic at the level matching its severity.
func (r *LogReporter) Report(d Diagnostic) {
	kv := []any{"code", string(d.Code)}
	if d.Element != "" {
		kv = append(kv, "element", d.Element)
	}
	switch d.Severity {
	case SevError:
		r.Logger.Error(d.Message, kv...)
	case SevWarning:
		r.Logger.Warn(d.Message, kv...)
	default:
		r.Logger.Info(d.Message, kv...)
	}
}

// Multi fans a diagnostic out to every reporter in order.
type Multi []Reporter

// Report forwards the diagnostic to each reporter.
func (m Multi) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// Ensure the reporter implementations satisfy Reporter.
var (
	_ Reporter = Nop{}
	_ Reporter = (*LogReporter)(nil)
	_ Reporter = Multi(nil)
	_ Reporter = (*Bag)(nil)
)
