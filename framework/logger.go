package framework

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Println(args ...interface{})                {}
func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger records everything logged for a single test execution, and optionally
// forwards each message to another logger as well. The captured output travels with the
// test's terminal event so that reporters can show it next to a failure.
type CapturingLogger struct {
	forward Logger
	output  []CapturedMessage
	lock    sync.Mutex
}

// NewCapturingLogger creates a CapturingLogger. If forward is non-nil, every message is also
// written to it.
func NewCapturingLogger(forward Logger) *CapturingLogger {
	return &CapturingLogger{forward: forward}
}

func (l *CapturingLogger) Println(args ...interface{}) {
	m := strings.TrimRight(fmt.Sprintln(args...), "\r\n") // Sprintln appends a newline
	l.append(CapturedMessage{Time: time.Now(), Message: m})
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.append(CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
}

func (l *CapturingLogger) append(m CapturedMessage) {
	l.lock.Lock()
	l.output = append(l.output, m)
	l.lock.Unlock()
	if l.forward != nil {
		l.forward.Println(m.Message)
	}
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

func (output CapturedOutput) ToString(prefix string) string {
	ret := ""
	for _, m := range output {
		if ret != "" {
			ret += "\n"
		}
		ret += fmt.Sprintf("%s[%s] %s",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
	return ret
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	if baseLogger == nil {
		baseLogger = NullLogger()
	}
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}
