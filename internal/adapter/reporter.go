package adapter

import (
	"fmt"
)

// Op names the operation a Failure happened in.
type Op string

const (
	OpConnect     Op = "connect"
	OpDisconnect  Op = "disconnect"
	OpEncode      Op = "encode"
	OpPublish     Op = "publish"
	OpSubscribe   Op = "subscribe"
	OpUnsubscribe Op = "unsubscribe"
	OpDecode      Op = "decode"
	OpSubmit      Op = "submit"

	// OpReceive covers failures inside the broker client's message
	// delivery, before a binding's handler could account for them.
	OpReceive Op = "receive"
)

// Failure describes one runtime failure. It is an error; Unwrap exposes the
// wrapped sentinel (ErrPublish, ErrDecode, ...) for errors.Is.
type Failure struct {
	Op    Op
	Key   string
	Topic string
	Err   error
}

func (f Failure) Error() string {
	if f.Key == "" && f.Topic == "" {
		return fmt.Sprintf("%s: %v", f.Op, f.Err)
	}
	return fmt.Sprintf("%s key=%s topic=%s: %v", f.Op, f.Key, f.Topic, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Reporter receives every runtime failure. Reporting never stops dispatch.
//
// Report may be called from many goroutines at once.
type Reporter interface {
	Report(f Failure)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(f Failure)

// Report implements Reporter.
func (fn ReporterFunc) Report(f Failure) { fn(f) }

// MultiReporter fans a failure out to several reporters in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(f Failure) {
	for _, r := range m {
		if r != nil {
			r.Report(f)
		}
	}
}

// LogReporter writes failures to a Logger at error level.
type LogReporter struct {
	Logger Logger
}

// Report implements Reporter.
func (r LogReporter) Report(f Failure) {
	if r.Logger == nil {
		return
	}
	r.Logger.Error("dispatch failure",
		"op", string(f.Op),
		"key", f.Key,
		"topic", f.Topic,
		"error", f.Err,
	)
}

type noopReporter struct{}

func (noopReporter) Report(Failure) {}

// Logger defines the logging interface used by the adapter.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
